package policy

import "fmt"

// ActionKind identifies the enforcement operation an Action requests.
type ActionKind string

const (
	// ActionRenice adjusts the scheduling priority of a single process.
	ActionRenice ActionKind = "renice"
	// ActionReniceUser adjusts the scheduling priority of every process
	// owned by a user at once.
	ActionReniceUser ActionKind = "renice-user"
	// ActionKill forcefully terminates a single process.
	ActionKill ActionKind = "kill"
)

// Action is a tagged enforcement request produced by the policy engine.
// Priority is a niceness value in [0,19] (19 = lowest) and is only
// meaningful for the renice kinds.
type Action struct {
	Kind     ActionKind
	PID      int32
	User     string
	Priority int
}

// Renice builds a priority-change action for one process.
func Renice(pid int32, priority int) Action {
	return Action{Kind: ActionRenice, PID: pid, Priority: priority}
}

// ReniceUser builds a priority-change action covering all of a user's
// processes.
func ReniceUser(user string, priority int) Action {
	return Action{Kind: ActionReniceUser, User: user, Priority: priority}
}

// Kill builds a termination action for one process.
func Kill(pid int32) Action {
	return Action{Kind: ActionKill, PID: pid}
}

// String renders the action for logs.
func (a Action) String() string {
	switch a.Kind {
	case ActionRenice:
		return fmt.Sprintf("renice(pid=%d, priority=%d)", a.PID, a.Priority)
	case ActionReniceUser:
		return fmt.Sprintf("renice(user=%s, priority=%d)", a.User, a.Priority)
	case ActionKill:
		return fmt.Sprintf("kill(pid=%d)", a.PID)
	default:
		return fmt.Sprintf("unknown(%s)", string(a.Kind))
	}
}
