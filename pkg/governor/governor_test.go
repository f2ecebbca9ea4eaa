package governor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairshared/fairshared/pkg/policy"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

type fakeSampler struct {
	mu       sync.Mutex
	load     snapshot.LoadAverages
	loadErr  error
	snap     *snapshot.Snapshot
	snapErr  error
	collects int
}

func (f *fakeSampler) CollectLoad(context.Context) (snapshot.LoadAverages, error) {
	return f.load, f.loadErr
}

func (f *fakeSampler) Collect(context.Context) (*snapshot.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collects++
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return f.snap, nil
}

func (f *fakeSampler) collectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collects
}

type fakePlanner struct {
	actions []policy.Action
	panics  bool
}

func (f *fakePlanner) Plan(*snapshot.Snapshot) []policy.Action {
	if f.panics {
		panic("planner blew up")
	}
	return f.actions
}

type fakeApplier struct {
	mu      sync.Mutex
	applied [][]policy.Action
}

func (f *fakeApplier) Apply(_ context.Context, actions []policy.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, append([]policy.Action(nil), actions...))
	return nil
}

func (f *fakeApplier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applied)
}

func (f *fakeApplier) last() []policy.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.applied) == 0 {
		return nil
	}
	return f.applied[len(f.applied)-1]
}

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Managed: []snapshot.ProcessSample{
			{PID: 100, User: "alice", CPU: 80},
			{PID: 200, User: "bob", CPU: 60},
		},
		Users: []string{"alice", "bob"},
	}
}

func testGovernor(sampler Sampler, planner Planner, applier Applier) *Governor {
	g := New(Config{
		Sampler:      sampler,
		Planner:      planner,
		Applier:      applier,
		Interval:     10 * time.Second,
		CPUIntervene: 20,
	})
	g.notify = func(bool, string) (bool, error) { return true, nil }
	return g
}

func TestRunRestoresOnShutdown(t *testing.T) {
	sampler := &fakeSampler{load: snapshot.LoadAverages{Load1: 50}, snap: testSnapshot()}
	planner := &fakePlanner{actions: []policy.Action{policy.Renice(100, 19)}}
	applier := &fakeApplier{}
	g := testGovernor(sampler, planner, applier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	require.Eventually(t, func() bool { return applier.count() >= 1 },
		2*time.Second, 10*time.Millisecond, "first cycle never enforced")
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("governor did not stop within a second of cancellation")
	}

	// the final Apply must be the restore pass, one neutral renice per
	// managed process
	restore := applier.last()
	require.Len(t, restore, 2)
	for _, a := range restore {
		assert.Equal(t, policy.ActionRenice, a.Kind)
		assert.Equal(t, 0, a.Priority)
	}
	assert.Equal(t, StateStopped, g.State())
}

func TestRunRestoresAfterPanic(t *testing.T) {
	sampler := &fakeSampler{load: snapshot.LoadAverages{Load1: 50}, snap: testSnapshot()}
	applier := &fakeApplier{}
	g := testGovernor(sampler, &fakePlanner{panics: true}, applier)

	err := g.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	restore := applier.last()
	require.Len(t, restore, 2)
	assert.Equal(t, 0, restore[0].Priority)
	assert.Equal(t, StateStopped, g.State())
}

func TestCycleSkipsBelowThreshold(t *testing.T) {
	sampler := &fakeSampler{load: snapshot.LoadAverages{Load1: 5}, snap: testSnapshot()}
	applier := &fakeApplier{}
	g := testGovernor(sampler, &fakePlanner{}, applier)

	g.cycle(context.Background())

	assert.Zero(t, sampler.collectCount(), "full snapshot must not be taken under light load")
	assert.Zero(t, applier.count())
}

func TestCycleEnforcesPlan(t *testing.T) {
	sampler := &fakeSampler{load: snapshot.LoadAverages{Load1: 50}, snap: testSnapshot()}
	planner := &fakePlanner{actions: []policy.Action{policy.Renice(100, 19), policy.Renice(200, 0)}}
	applier := &fakeApplier{}
	g := testGovernor(sampler, planner, applier)

	g.cycle(context.Background())

	require.Equal(t, 1, applier.count())
	assert.Equal(t, planner.actions, applier.last())
}

func TestRestoreFallsBackToLastKnown(t *testing.T) {
	sampler := &fakeSampler{load: snapshot.LoadAverages{Load1: 50}, snap: testSnapshot()}
	applier := &fakeApplier{}
	g := testGovernor(sampler, &fakePlanner{}, applier)

	g.cycle(context.Background())

	// once the machine can no longer be listed the last cycle's samples
	// still get their priorities back
	sampler.mu.Lock()
	sampler.snapErr = context.DeadlineExceeded
	sampler.mu.Unlock()
	g.restore()

	restore := applier.last()
	require.Len(t, restore, 2)
	assert.Equal(t, int32(100), restore[0].PID)
	assert.Equal(t, 0, restore[0].Priority)
}

func TestSleepStopsOnCancel(t *testing.T) {
	g := testGovernor(&fakeSampler{}, &fakePlanner{}, &fakeApplier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.False(t, g.sleep(ctx))
	assert.Less(t, time.Since(start), time.Second)
}
