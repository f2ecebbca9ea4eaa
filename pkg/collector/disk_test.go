package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCollect(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"alice", "bob", "shared", ".skel"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}

	dc := &DiskCollector{
		HomeRoot: root,
		Excluded: map[string]bool{"shared": true},
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			require.Equal(t, "du", name)
			require.Equal(t, "-sk", args[0])
			switch filepath.Base(args[1]) {
			case "alice":
				return []byte("20971520\t" + args[1] + "\n"), nil
			case "bob":
				return nil, fmt.Errorf("du: cannot read directory")
			default:
				t.Fatalf("unexpected du target %q", args[1])
				return nil, nil
			}
		},
	}

	users, usage, err := dc.Collect(context.Background())
	require.NoError(t, err)

	// hidden entries are invisible, excluded users are accounts without
	// accounting, and a failed du drops only that one entry
	assert.ElementsMatch(t, []string{"alice", "bob", "shared"}, users)
	assert.Equal(t, map[string]int64{"alice": 20971520}, usage)
}

func TestDiskCollectWarnsThroughInjectedLogger(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "bob"), 0o755))

	var buf bytes.Buffer
	dc := &DiskCollector{
		HomeRoot: root,
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
		run: func(context.Context, string, ...string) ([]byte, error) {
			return nil, fmt.Errorf("du: cannot read directory")
		},
	}

	_, usage, err := dc.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, usage)
	assert.Contains(t, buf.String(), "skipping disk usage entry")
	assert.Contains(t, buf.String(), "bob")
}

func TestDiskCollectUnreadableRoot(t *testing.T) {
	dc := &DiskCollector{HomeRoot: filepath.Join(t.TempDir(), "nope")}

	_, _, err := dc.Collect(context.Background())
	require.Error(t, err)
}

func TestMeasureRejectsGarbage(t *testing.T) {
	dc := &DiskCollector{
		HomeRoot: t.TempDir(),
		run: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("not-a-number"), nil
		},
	}

	_, err := dc.measure(context.Background(), "/home/alice")
	require.Error(t, err)
}
