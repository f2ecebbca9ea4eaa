package enforcer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/policy"
)

type call struct {
	name string
	args []string
}

func (c call) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

func recordingEnforcer(fail map[string]int) (*Enforcer, *[]call) {
	var calls []call
	e := New(nil)
	e.run = func(_ context.Context, name string, args ...string) (int, error) {
		c := call{name: name, args: args}
		calls = append(calls, c)
		if code, ok := fail[c.String()]; ok {
			return code, fmt.Errorf("exit status %d", code)
		}
		return 0, nil
	}
	return e, &calls
}

func TestApplyRenice(t *testing.T) {
	e, calls := recordingEnforcer(nil)

	err := e.Apply(context.Background(), []policy.Action{
		policy.Renice(1234, 19),
		policy.ReniceUser("alice", 19),
	})
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, "renice -n 19 -p 1234", (*calls)[0].String())
	assert.Equal(t, "renice -n 19 -u alice", (*calls)[1].String())
}

func TestApplyKillRetriesOnce(t *testing.T) {
	e, calls := recordingEnforcer(map[string]int{"kill -9 4321": 1})

	err := e.Apply(context.Background(), []policy.Action{policy.Kill(4321)})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnforcement))

	// one attempt plus exactly one retry
	require.Len(t, *calls, 2)
	assert.Equal(t, "kill -9 4321", (*calls)[0].String())
	assert.Equal(t, "kill -9 4321", (*calls)[1].String())
}

func TestApplyContinuesPastFailures(t *testing.T) {
	e, calls := recordingEnforcer(map[string]int{"renice -n 19 -p 1": 1})

	err := e.Apply(context.Background(), []policy.Action{
		policy.Renice(1, 19),
		policy.Renice(2, 0),
	})
	require.Error(t, err)

	// the failure on pid 1 must not keep pid 2 from being reniced
	assert.Equal(t, "renice -n 0 -p 2", (*calls)[len(*calls)-1].String())
}

func TestApplyEmptyPlan(t *testing.T) {
	e, calls := recordingEnforcer(nil)

	require.NoError(t, e.Apply(context.Background(), nil))
	assert.Empty(t, *calls)
}
