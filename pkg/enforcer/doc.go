// Package enforcer applies planned priority and kill actions to the host
// through the renice and kill utilities. Every command runs under its own
// timeout and individual failures never abort the remaining actions.
package enforcer
