// Package daemon manages the background daemon lifecycle: a pidfile as
// the single-instance lock, detached start by re-executing the binary,
// and SIGTERM-then-wait stop so the shutdown restore pass completes
// before control returns.
package daemon
