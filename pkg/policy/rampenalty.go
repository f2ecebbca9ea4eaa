package policy

import "github.com/fairshared/fairshared/pkg/snapshot"

// RAMPenalty demotes every process of a user whose aggregate memory
// percentage exceeds Threshold to the lowest priority, with a single
// per-user action rather than one per process.
//
// The threshold compares against a literal sum of per-process memory
// percentages, which can legitimately exceed 100 for a user with many
// processes; it is a tunable heuristic, not a fraction of total RAM.
type RAMPenalty struct {
	Threshold float64
}

// Name implements Scheduler.
func (r *RAMPenalty) Name() string { return string(SchedulerRAMPenalty) }

// Plan implements Scheduler.
func (r *RAMPenalty) Plan(s *snapshot.Snapshot) []Action {
	byUser := s.ManagedByUser()

	var actions []Action
	for _, user := range sortedUsers(byUser) {
		total := 0.0
		for _, p := range byUser[user] {
			total += p.Memory
		}
		if total > r.Threshold {
			actions = append(actions, ReniceUser(user, nicenessMax))
		}
	}
	return actions
}

// Hybrid composes fair-share scheduling with the RAM penalty: fair-share
// assigns priorities first, then offending users are overridden to the
// lowest priority. Enforcement applies actions in order, so the per-user
// renice lands last.
type Hybrid struct {
	FairShare  *FairShare
	RAMPenalty *RAMPenalty
}

// Name implements Scheduler.
func (h *Hybrid) Name() string { return string(SchedulerHybrid) }

// Plan implements Scheduler.
func (h *Hybrid) Plan(s *snapshot.Snapshot) []Action {
	actions := h.FairShare.Plan(s)
	return append(actions, h.RAMPenalty.Plan(s)...)
}

// Restore resets every managed process to neutral priority. It is the
// strategy the governor runs on every exit path so the host is never left
// in a modified-priority state.
type Restore struct{}

// Name implements Scheduler.
func (r *Restore) Name() string { return string(SchedulerRestore) }

// Plan implements Scheduler. It renices every sampled process without the
// valid-account filter: the shutdown snapshot carries no account set, and
// a process that was managed must be restored even if its owner's home
// directory vanished mid-run.
func (r *Restore) Plan(s *snapshot.Snapshot) []Action {
	actions := make([]Action, 0, len(s.Managed))
	for _, p := range s.Managed {
		actions = append(actions, Renice(p.PID, 0))
	}
	return actions
}
