// Copyright (c) 2026, the fairshared authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package daemon

import (
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fairshared/fairshared/pkg/errors"
)

// DefaultStopTimeout is how long Stop waits for the daemon to exit after
// SIGTERM before giving up.
const DefaultStopTimeout = 30 * time.Second

// stopPollInterval is how often Stop re-probes the daemon process.
const stopPollInterval = 200 * time.Millisecond

// ErrNotRunning reports that no live daemon was found behind the pidfile.
var ErrNotRunning = errors.New(errors.ErrCodeUnavailable, "daemon is not running")

// Controller starts and stops the background daemon process. A pidfile is
// the single-instance lock: Start refuses while a live recorded pid
// exists, and a stale pidfile left by a crash is removed on sight.
type Controller struct {
	Pidfile string
	Logger  *slog.Logger
}

// NewController creates a Controller over the given pidfile.
func NewController(pidfile string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{Pidfile: pidfile, Logger: logger}
}

// Current returns the pid of the running daemon, or ErrNotRunning. A
// pidfile pointing at a dead process is cleaned up along the way.
func (c *Controller) Current() (int, error) {
	pid, err := ReadPidfile(c.Pidfile)
	if os.IsNotExist(err) {
		return 0, ErrNotRunning
	}
	if err != nil {
		return 0, err
	}
	if !Alive(pid) {
		c.Logger.Warn("removing stale pidfile",
			slog.String("path", c.Pidfile), slog.Int("pid", pid))
		if rerr := RemovePidfile(c.Pidfile); rerr != nil {
			return 0, rerr
		}
		return 0, ErrNotRunning
	}
	return pid, nil
}

// Start re-executes the current binary with the given arguments as a
// detached session leader and records its pid. It returns the child pid.
func (c *Controller) Start(args ...string) (int, error) {
	if pid, err := c.Current(); err == nil {
		return 0, errors.WrapWithContext(errors.ErrCodeStartupConfig,
			"daemon already running", nil, map[string]any{"pid": pid})
	} else if err != ErrNotRunning {
		return 0, err
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "resolving executable", err)
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "opening devnull", err)
	}
	defer devnull.Close()

	cmd := exec.Command(exe, args...)
	cmd.Stdin = devnull
	// the child logs to stderr; journald or the service supervisor picks
	// that up, an interactive start discards it
	cmd.Stdout = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "starting daemon process", err)
	}

	pid := cmd.Process.Pid
	if err := WritePidfile(c.Pidfile, pid); err != nil {
		_ = unix.Kill(pid, unix.SIGTERM)
		return 0, err
	}

	// the parent exits; reparenting is the point
	if err := cmd.Process.Release(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, "releasing daemon process", err)
	}

	c.Logger.Info("daemon started", slog.Int("pid", pid), slog.String("pidfile", c.Pidfile))
	return pid, nil
}

// Stop signals the running daemon with SIGTERM and waits for it to exit,
// then removes the pidfile. The daemon restores process priorities on the
// way down, so the wait covers that pass too.
func (c *Controller) Stop(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	pid, err := c.Current()
	if err != nil {
		return err
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal,
			"signaling daemon", err, map[string]any{"pid": pid})
	}

	deadline := time.Now().Add(timeout)
	for Alive(pid) {
		if time.Now().After(deadline) {
			return errors.WrapWithContext(errors.ErrCodeInternal,
				"daemon did not exit", nil,
				map[string]any{"pid": pid, "timeout": timeout.String()})
		}
		time.Sleep(stopPollInterval)
	}

	c.Logger.Info("daemon stopped", slog.Int("pid", pid))
	return RemovePidfile(c.Pidfile)
}

// Restart stops any running daemon and starts a fresh one.
func (c *Controller) Restart(timeout time.Duration, args ...string) (int, error) {
	if err := c.Stop(timeout); err != nil && err != ErrNotRunning {
		return 0, err
	}
	return c.Start(args...)
}
