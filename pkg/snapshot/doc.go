// Package snapshot defines the immutable point-in-time view of system state
// consumed by the policy engine: per-process samples, load averages, and
// per-user disk usage.
package snapshot
