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

package enforcer

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/policy"
)

// DefaultTimeout bounds each individual enforcement command.
const DefaultTimeout = 5 * time.Second

// execRunner abstracts enforcement command execution for testing. It
// returns the command exit code, -1 when the process never ran.
type execRunner func(ctx context.Context, name string, args ...string) (int, error)

// runCommand resolves a binary on PATH, runs it, and reports its exit code.
func runCommand(ctx context.Context, name string, args ...string) (int, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return -1, err
	}
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		var xe *exec.ExitError
		if stderrors.As(err, &xe) {
			return xe.ExitCode(), fmt.Errorf("%s: %s", err, out)
		}
		return -1, err
	}
	return 0, nil
}

// Enforcer applies planned actions to the system through renice and kill.
//
// Failures are isolated: one process that exited or changed owner between
// planning and enforcement must not abort the rest of the plan. Apply
// carries out every action and reports the failures in aggregate.
type Enforcer struct {
	Timeout time.Duration
	Logger  *slog.Logger

	run execRunner
}

// New creates an Enforcer with production defaults.
func New(logger *slog.Logger) *Enforcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enforcer{Timeout: DefaultTimeout, Logger: logger}
}

func (e *Enforcer) runner() execRunner {
	if e.run != nil {
		return e.run
	}
	return runCommand
}

func (e *Enforcer) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

// Apply carries out every action in order. It never stops early; the
// returned error aggregates the failed actions, nil when all succeeded.
func (e *Enforcer) Apply(ctx context.Context, actions []policy.Action) error {
	var failed []error
	for _, a := range actions {
		if err := e.apply(ctx, a); err != nil {
			actionsTotal.WithLabelValues(string(a.Kind), "error").Inc()
			e.Logger.Error("enforcement action failed",
				slog.String("action", a.String()),
				slog.String("error", err.Error()))
			failed = append(failed, err)
			continue
		}
		actionsTotal.WithLabelValues(string(a.Kind), "success").Inc()
	}
	if len(failed) > 0 {
		return errors.WrapWithContext(errors.ErrCodeEnforcement,
			"applying actions", stderrors.Join(failed...),
			map[string]any{"failed": len(failed), "total": len(actions)})
	}
	return nil
}

func (e *Enforcer) apply(ctx context.Context, a policy.Action) error {
	switch a.Kind {
	case policy.ActionRenice:
		return e.exec(ctx, "renice",
			"-n", strconv.Itoa(a.Priority), "-p", strconv.FormatInt(int64(a.PID), 10))
	case policy.ActionReniceUser:
		return e.exec(ctx, "renice",
			"-n", strconv.Itoa(a.Priority), "-u", a.User)
	case policy.ActionKill:
		// a process can shrug off the first signal while exiting; one
		// retry covers the common race without looping forever
		err := e.exec(ctx, "kill", "-9", strconv.FormatInt(int64(a.PID), 10))
		if err == nil {
			return nil
		}
		return e.exec(ctx, "kill", "-9", strconv.FormatInt(int64(a.PID), 10))
	default:
		return errors.New(errors.ErrCodeEnforcement,
			fmt.Sprintf("unknown action kind %q", a.Kind))
	}
}

// exec runs one enforcement command under its own timeout.
func (e *Enforcer) exec(ctx context.Context, name string, args ...string) error {
	cctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	e.Logger.Debug("running enforcement command",
		slog.String("name", name), slog.Any("args", args))

	code, err := e.runner()(cctx, name, args...)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeEnforcement,
			fmt.Sprintf("running %s", name), err,
			map[string]any{"exit_code": code})
	}
	return nil
}
