package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairshared/fairshared/pkg/config"
	"github.com/fairshared/fairshared/pkg/policy"
)

func TestRootCommandSet(t *testing.T) {
	root := Root()

	want := []string{"run", "start", "stop", "restart", "snapshot", "plan", "registrar"}
	var got []string
	for _, c := range root.Commands {
		got = append(got, c.Name)
	}
	assert.Equal(t, want, got)
}

func TestBuildEngineDefaults(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	engine, err := buildEngine(cfg)
	require.NoError(t, err)

	assert.Equal(t, string(policy.SchedulerHybrid), engine.Name())
	require.NotNil(t, engine.Quota, "default config carries a 20g quota")
	assert.Equal(t, int64(20*1024*1024), engine.Quota.QuotaKiB)
}

func TestBuildEngineNoQuota(t *testing.T) {
	cfg := config.Default()
	cfg.UserQuota = ""
	require.NoError(t, cfg.Validate())

	engine, err := buildEngine(cfg)
	require.NoError(t, err)
	assert.Nil(t, engine.Quota)
}

func TestNewSnapshotterUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Excluded = "shared, guest"
	require.NoError(t, cfg.Validate())

	s := newSnapshotter(cfg)
	require.NotNil(t, s)
}
