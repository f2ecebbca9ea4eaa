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

package governor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/policy"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

// State identifies where the governor loop currently is.
type State string

const (
	StateIdle         State = "idle"
	StateSampling     State = "sampling"
	StateDeciding     State = "deciding"
	StateEnforcing    State = "enforcing"
	StateSleeping     State = "sleeping"
	StateShuttingDown State = "shutting-down"
	StateStopped      State = "stopped"
)

// restoreTimeout bounds the final restore pass, which runs after the loop
// context is already canceled.
const restoreTimeout = 30 * time.Second

// Sampler captures system snapshots. *collector.Snapshotter satisfies it.
type Sampler interface {
	CollectLoad(ctx context.Context) (snapshot.LoadAverages, error)
	Collect(ctx context.Context) (*snapshot.Snapshot, error)
}

// Planner turns a snapshot into actions. *policy.Engine satisfies it.
type Planner interface {
	Plan(snap *snapshot.Snapshot) []policy.Action
}

// Applier carries out planned actions. *enforcer.Enforcer satisfies it.
type Applier interface {
	Apply(ctx context.Context, actions []policy.Action) error
}

// Config assembles a Governor from its collaborators.
type Config struct {
	Sampler      Sampler
	Planner      Planner
	Applier      Applier
	Interval     time.Duration
	CPUIntervene float64
	Logger       *slog.Logger
}

// Governor runs the periodic sample-decide-enforce cycle.
//
// It owns the machine's niceness state while running, so every exit path,
// including a panic inside a cycle, ends with a restore pass that renices
// the managed processes back to neutral before Run returns.
type Governor struct {
	sampler      Sampler
	planner      Planner
	applier      Applier
	interval     time.Duration
	cpuIntervene float64
	logger       *slog.Logger

	// sd_notify seam for tests
	notify func(unsetEnv bool, state string) (bool, error)

	mu          sync.Mutex
	state       State
	lastManaged []snapshot.ProcessSample
}

// New creates a Governor. It panics on a nil collaborator since that is a
// wiring bug, not a runtime condition.
func New(cfg Config) *Governor {
	if cfg.Sampler == nil || cfg.Planner == nil || cfg.Applier == nil {
		panic("governor: nil collaborator")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Governor{
		sampler:      cfg.Sampler,
		planner:      cfg.Planner,
		applier:      cfg.Applier,
		interval:     cfg.Interval,
		cpuIntervene: cfg.CPUIntervene,
		logger:       cfg.Logger,
		notify:       daemon.SdNotify,
		state:        StateIdle,
	}
}

// State reports the loop's current state.
func (g *Governor) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Governor) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Run executes cycles until ctx is canceled. It always returns through the
// restore pass, even when a cycle panics.
func (g *Governor) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, fmt.Sprintf("governor panic: %v", r))
			g.logger.Error("governor cycle panicked", slog.Any("panic", r))
		}
		g.setState(StateShuttingDown)
		g.restore()
		if _, nerr := g.notify(false, daemon.SdNotifyStopping); nerr != nil {
			g.logger.Debug("sd_notify stopping failed", slog.String("error", nerr.Error()))
		}
		g.setState(StateStopped)
	}()

	if _, nerr := g.notify(false, daemon.SdNotifyReady); nerr != nil {
		g.logger.Debug("sd_notify ready failed", slog.String("error", nerr.Error()))
	}

	g.logger.Info("governor started",
		slog.Duration("interval", g.interval),
		slog.Float64("cpu_intervene", g.cpuIntervene))

	for {
		g.cycle(ctx)
		g.setState(StateSleeping)
		if !g.sleep(ctx) {
			return nil
		}
	}
}

// cycle runs one sample-decide-enforce pass.
func (g *Governor) cycle(ctx context.Context) {
	start := time.Now()
	g.setState(StateSampling)

	la, err := g.sampler.CollectLoad(ctx)
	if err != nil {
		g.logger.Error("load sampling failed", slog.String("error", err.Error()))
		cyclesTotal.WithLabelValues("error").Inc()
		return
	}
	load1Gauge.Set(la.Load1)

	// below the intervention threshold nobody is starved, so the machine
	// is left alone
	if la.Load1 < g.cpuIntervene {
		g.logger.Debug("load below intervention threshold",
			slog.Float64("load1", la.Load1),
			slog.Float64("threshold", g.cpuIntervene))
		cyclesTotal.WithLabelValues("skipped").Inc()
		return
	}

	snap, err := g.sampler.Collect(ctx)
	if err != nil {
		g.logger.Error("snapshot collection failed", slog.String("error", err.Error()))
		cyclesTotal.WithLabelValues("error").Inc()
		return
	}

	g.mu.Lock()
	g.lastManaged = snap.Managed
	g.mu.Unlock()

	g.setState(StateDeciding)
	actions := g.planner.Plan(snap)
	plannedActions.Set(float64(len(actions)))

	g.setState(StateEnforcing)
	if err := g.applier.Apply(ctx, actions); err != nil {
		g.logger.Error("enforcement failed", slog.String("error", err.Error()))
		cyclesTotal.WithLabelValues("error").Inc()
	} else {
		cyclesTotal.WithLabelValues("success").Inc()
	}

	cycleDuration.Observe(time.Since(start).Seconds())
	g.logger.Info("cycle complete",
		slog.Float64("load1", la.Load1),
		slog.Int("actions", len(actions)),
		slog.Duration("took", time.Since(start)))
}

// sleep waits out the interval in one-second steps so shutdown is never
// delayed by more than a second. It reports false once ctx is canceled.
func (g *Governor) sleep(ctx context.Context) bool {
	deadline := time.Now().Add(g.interval)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case now := <-ticker.C:
			if _, err := g.notify(false, daemon.SdNotifyWatchdog); err != nil {
				g.logger.Debug("sd_notify watchdog failed", slog.String("error", err.Error()))
			}
			if !now.Before(deadline) {
				return true
			}
		}
	}
}

// restore renices the managed processes back to neutral. It prefers a
// fresh process listing and falls back to the last cycle's samples when
// the machine can no longer be listed.
func (g *Governor) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	managed := g.managedForRestore(ctx)
	if len(managed) == 0 {
		g.logger.Info("no managed processes to restore")
		return
	}

	actions := (&policy.Restore{}).Plan(&snapshot.Snapshot{Managed: managed})
	if err := g.applier.Apply(ctx, actions); err != nil {
		g.logger.Error("restore pass failed", slog.String("error", err.Error()))
		return
	}
	g.logger.Info("restored process priorities", slog.Int("count", len(actions)))
}

func (g *Governor) managedForRestore(ctx context.Context) []snapshot.ProcessSample {
	snap, err := g.sampler.Collect(ctx)
	if err == nil {
		return snap.Managed
	}
	g.logger.Warn("restore snapshot failed, using last known processes",
		slog.String("error", err.Error()))

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastManaged
}
