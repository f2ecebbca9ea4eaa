// Package governor drives the periodic sample-decide-enforce loop. Each
// cycle is gated on the one minute load average, sleeps are taken in one
// second steps for prompt shutdown, and every exit path runs a restore
// pass that returns the managed processes to neutral priority.
package governor
