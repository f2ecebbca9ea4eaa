// Package collector produces the immutable system snapshots the governor
// decides on: process samples from batch-mode top cross-referenced against
// ps, load averages, and per-user home directory usage.
//
// Every external command invocation is bounded by a timeout so a hung
// introspection binary cannot stall the control loop.
package collector
