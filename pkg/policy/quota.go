package policy

import "github.com/fairshared/fairshared/pkg/snapshot"

// CriticalCommands lists process commands exempt from quota-driven
// termination: killing them would sever the user's interactive session or
// corrupt system state.
var CriticalCommands = map[string]bool{
	"systemd":   true,
	"(sd-pam)":  true,
	"sshd":      true,
	"sh":        true,
	"zsh":       true,
	"bash":      true,
	"tmux":      true,
	"vim":       true,
	"nano":      true,
	"ssh-agent": true,
	"ssh":       true,
	"rm":        true,
	"mv":        true,
	"ls":        true,
	"cd":        true,
	"autossh":   true,
}

// QuotaRule terminates every non-critical process of users whose home
// directory usage exceeds QuotaKiB. Killing all non-critical processes is
// the enforcement lever; the critical list keeps the user's shell and
// session alive.
type QuotaRule struct {
	// QuotaKiB is the per-user home directory limit in KiB, matching the
	// unit the disk collector reports.
	QuotaKiB int64

	// Critical overrides CriticalCommands when non-nil.
	Critical map[string]bool
}

// IsCritical reports whether a command is exempt from quota termination.
func (q *QuotaRule) IsCritical(command string) bool {
	if q.Critical != nil {
		return q.Critical[command]
	}
	return CriticalCommands[command]
}

// Plan emits Kill actions for every non-critical process owned by a
// quota-exceeded user, consulting the full process table so background
// processes are covered too.
func (q *QuotaRule) Plan(s *snapshot.Snapshot) []Action {
	byUser := s.TableByUser()

	var actions []Action
	for _, user := range sortedUsers(byUser) {
		if s.DiskUsage[user] <= q.QuotaKiB {
			continue
		}
		for _, p := range byUser[user] {
			if q.IsCritical(p.Command) {
				continue
			}
			actions = append(actions, Kill(p.PID))
		}
	}
	return actions
}

// Engine runs the configured priority strategy and, when a quota is
// configured, the disk quota rule, sequentially against one snapshot.
type Engine struct {
	Scheduler Scheduler
	Quota     *QuotaRule
}

// Plan implements Scheduler over the composed rules.
func (e *Engine) Plan(s *snapshot.Snapshot) []Action {
	actions := e.Scheduler.Plan(s)
	if e.Quota != nil {
		actions = append(actions, e.Quota.Plan(s)...)
	}
	return actions
}

// Name implements Scheduler.
func (e *Engine) Name() string { return e.Scheduler.Name() }
