package collector

import (
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/fairshared/fairshared/pkg/snapshot"
)

// DefaultTimeout bounds every external introspection command so a hung
// binary cannot stall the governor indefinitely.
const DefaultTimeout = 10 * time.Second

// commandRunner abstracts external command execution for testing.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// runCommand resolves a binary on PATH and captures its stdout.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, path, args...).Output()
}

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateProcessCollector() *ProcessCollector
	CreateDiskCollector() *DiskCollector
	CreateLoadCollector() *LoadCollector
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	HomeRoot string
	Excluded map[string]bool
	MinCPU   float64
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NewDefaultFactory creates a factory with default settings for the given
// home root and disk-accounting exclusion set.
func NewDefaultFactory(homeRoot string, excluded map[string]bool) *DefaultFactory {
	return &DefaultFactory{
		HomeRoot: homeRoot,
		Excluded: excluded,
		MinCPU:   MinManagedCPU,
		Timeout:  DefaultTimeout,
	}
}

// CreateProcessCollector creates a process table collector.
func (f *DefaultFactory) CreateProcessCollector() *ProcessCollector {
	return &ProcessCollector{MinCPU: f.MinCPU, Timeout: f.Timeout}
}

// CreateDiskCollector creates a per-user disk usage collector.
func (f *DefaultFactory) CreateDiskCollector() *DiskCollector {
	return &DiskCollector{HomeRoot: f.HomeRoot, Excluded: f.Excluded, Timeout: f.Timeout, Logger: f.Logger}
}

// CreateLoadCollector creates a load average collector.
func (f *DefaultFactory) CreateLoadCollector() *LoadCollector {
	return &LoadCollector{}
}

// Snapshotter assembles the full point-in-time snapshot the policy engine
// consumes. Collection is strictly sequential: the governor runs a single
// cooperative loop and the snapshot must be complete before any decision.
type Snapshotter struct {
	Factory Factory
	Logger  *slog.Logger
}

// NewSnapshotter builds a Snapshotter over a collector factory.
func NewSnapshotter(factory Factory, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{Factory: factory, Logger: logger}
}

// CollectLoad samples only the load averages, used for the cheap
// intervention gate at the top of each cycle.
func (s *Snapshotter) CollectLoad(ctx context.Context) (snapshot.LoadAverages, error) {
	return s.Factory.CreateLoadCollector().Collect(ctx)
}

// Collect captures a complete snapshot: load averages, both process views,
// per-user disk usage, and the valid-account set.
func (s *Snapshotter) Collect(ctx context.Context) (*snapshot.Snapshot, error) {
	la, err := s.CollectLoad(ctx)
	if err != nil {
		return nil, err
	}

	pc := s.Factory.CreateProcessCollector()
	managed, table, err := pc.Collect(ctx)
	if err != nil {
		return nil, err
	}

	dc := s.Factory.CreateDiskCollector()
	if dc.Logger == nil {
		dc.Logger = s.Logger
	}
	users, usage, err := dc.Collect(ctx)
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{
		Taken:     time.Now(),
		Load:      la,
		Managed:   managed,
		Table:     table,
		DiskUsage: usage,
		Users:     users,
	}

	s.Logger.Debug("snapshot collected",
		slog.Int("managed", len(snap.Managed)),
		slog.Int("table", len(snap.Table)),
		slog.Int("users", len(snap.Users)),
		slog.Float64("load1", snap.Load.Load1),
	)
	return snap, nil
}
