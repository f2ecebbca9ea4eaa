// Package errors provides structured error types shared across fairshared
// components.
//
// Errors carry a classification code so callers can map failures onto the
// governor's handling policy: STARTUP_CONFIG errors are fatal and prevent the
// daemon from starting, COLLECTION errors skip the affected cycle, and
// ENFORCEMENT errors are logged (and, for kill actions, retried) without
// stopping the loop.
package errors
