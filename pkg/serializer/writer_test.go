package serializer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fairshared/fairshared/pkg/policy"
	"github.com/fairshared/fairshared/pkg/serializer"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

func testSnap() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Taken: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Load:  snapshot.LoadAverages{Load1: 24.5, Load5: 20.1, Load15: 18.0},
		Managed: []snapshot.ProcessSample{
			{PID: 100, User: "alice", CPU: 95.0, Memory: 3.0, Command: "python3"},
		},
		DiskUsage: map[string]int64{"alice": 1024},
		Users:     []string{"alice"},
	}
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatJSON, &buf)

	require.NoError(t, w.Serialize(testSnap()))

	var got snapshot.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "alice", got.Managed[0].User)
	assert.Equal(t, 24.5, got.Load.Load1)
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatYAML, &buf)

	require.NoError(t, w.Serialize(testSnap()))

	var got snapshot.Snapshot
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, int32(100), got.Managed[0].PID)
}

func TestWriterSnapshotTable(t *testing.T) {
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatTable, &buf)

	require.NoError(t, w.Serialize(testSnap()))

	out := buf.String()
	assert.Contains(t, out, "load:  24.50 20.10 18.00")
	assert.Contains(t, out, "PID")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "DISK_KIB")
}

func TestWriterPlanTable(t *testing.T) {
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatTable, &buf)

	require.NoError(t, w.Serialize([]policy.Action{
		policy.Renice(100, 19),
		policy.ReniceUser("bob", 19),
		policy.Kill(200),
	}))

	out := buf.String()
	assert.Contains(t, out, "renice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "kill")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4, "header plus one row per action")
}

func TestWriterEmptyPlanTable(t *testing.T) {
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatTable, &buf)

	require.NoError(t, w.Serialize([]policy.Action(nil)))
	assert.Equal(t, "no actions\n", buf.String())
}

func TestWriterUnsupportedFormat(t *testing.T) {
	w := serializer.NewWriter("xml", &bytes.Buffer{})

	err := w.Serialize(testSnap())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
