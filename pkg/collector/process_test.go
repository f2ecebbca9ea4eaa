package collector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairshared/fairshared/pkg/errors"
)

const topFrame = `top - 12:00:00 up 1 day,  2 users,  load average: 25.00, 20.10, 18.30
Tasks: 300 total,   2 running, 298 sleeping,   0 stopped,   0 zombie
%Cpu(s): 80.0 us,  5.0 sy,  0.0 ni, 15.0 id,  0.0 wa,  0.0 hi,  0.0 si,  0.0 st
MiB Mem :  64000.0 total,  10000.0 free,  40000.0 used,  14000.0 buff/cache
MiB Swap:   8192.0 total,   8192.0 free,      0.0 used.  20000.0 avail Mem

    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND
   4321 alicelon+  20   0 1000000  50000   9000 R  95.0   3.0   1:23.45 python3 train.py
   5000 bob        20  10  500000  20000   5000 S  42.5   1.5   0:10.00 ffmpeg
   6000 carol      20   0  100000  10000   2000 S   2.0   0.5   0:01.00 sshd
   9999 dave       20   0  100000  10000   2000 R  88.0   0.2   0:09.00 stress
`

const psOwners = `    PID USER
      1 root
   4321 alicelongname
   5000 bob
   6000 carol
`

func fakeRunner(t *testing.T, outputs map[string]string) commandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		key := name + " " + strings.Join(args, " ")
		out, ok := outputs[key]
		require.True(t, ok, "unexpected command %q", key)
		return []byte(out), nil
	}
}

func TestCollectManagedCrossReferencesOwners(t *testing.T) {
	// The first top frame is noise from before utilization settles; only
	// the last frame should be parsed. Wrap it in control sequences the
	// way a real terminal-oriented top emits them.
	noisy := "\x1b[H\x1b[J" + topFrame + "\x1b(B\x1b[m" + topFrame

	pc := &ProcessCollector{
		run: fakeRunner(t, map[string]string{
			"top -b -u !root -d .1 -n 10": noisy,
			"ps axo pid,user:20":          psOwners,
		}),
	}

	managed, err := pc.collectManaged(context.Background())
	require.NoError(t, err)

	// carol is below the CPU floor; dave's pid is absent from ps (exited
	// between listings); alice and bob survive with corrected owners.
	require.Len(t, managed, 2)

	assert.Equal(t, int32(4321), managed[0].PID)
	assert.Equal(t, "alicelongname", managed[0].User, "truncated top username must be corrected from ps")
	assert.Equal(t, 95.0, managed[0].CPU)
	assert.Equal(t, "python3 train.py", managed[0].Command)

	assert.Equal(t, int32(5000), managed[1].PID)
	assert.Equal(t, "bob", managed[1].User)
	assert.Equal(t, 10, managed[1].Niceness)
}

func TestParseTopRejectsGarbage(t *testing.T) {
	_, err := parseTop("no frames here")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCollection))
}

func TestParseTopSkipsRealtimeRows(t *testing.T) {
	frame := strings.Replace(topFrame,
		"   5000 bob        20  10",
		"   5000 bob        rt  rt", 1)

	samples, err := parseTop(frame)
	require.NoError(t, err)
	for _, s := range samples {
		assert.NotEqual(t, int32(5000), s.PID, "rt rows are not renice targets")
	}
}

func TestParseOwners(t *testing.T) {
	owners, err := parseOwners(psOwners)
	require.NoError(t, err)

	assert.Equal(t, "alicelongname", owners[4321])
	assert.Equal(t, "root", owners[1])
	assert.Len(t, owners, 4)
}

func TestParseTable(t *testing.T) {
	out := `    PID USER                 NI %CPU %MEM COMMAND
      1 root                  0  0.1  0.2 systemd
   4321 alicelongname         0 95.0  3.0 python3
   4400 alicelongname         0  0.0  0.1 tmux: server
`

	table, err := parseTable(out)
	require.NoError(t, err)
	require.Len(t, table, 3)

	assert.Equal(t, "tmux: server", table[2].Command)
	assert.Equal(t, 95.0, table[1].CPU)
}

func TestParseTableRejectsShortRows(t *testing.T) {
	_, err := parseTable("PID USER\n123 alice\n")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCollection))
}
