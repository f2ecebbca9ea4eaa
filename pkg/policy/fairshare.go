package policy

import (
	"math"
	"sort"

	"github.com/fairshared/fairshared/pkg/snapshot"
)

const (
	// processWeightStep is the granularity of per-process CPU weights.
	processWeightStep = 100

	// nicenessMin and nicenessMax bound the target priority range.
	nicenessMin = 0
	nicenessMax = 19
)

// FairShare equalizes aggregate CPU share per user, not per process, while
// preserving relative priority among a user's own processes.
//
// Users with more processes carry proportionally more weight (user_weight =
// count / min_count), and within a user each process is weighted by the
// inverse of its share of the user's total CPU. The products are rescaled
// onto the niceness range [0,19].
type FairShare struct{}

// Name implements Scheduler.
func (f *FairShare) Name() string { return string(SchedulerFairShare) }

// Plan implements Scheduler.
func (f *FairShare) Plan(s *snapshot.Snapshot) []Action {
	byUser := s.ManagedByUser()
	if len(byUser) == 0 {
		return nil
	}

	minProcs := math.MaxInt
	for _, procs := range byUser {
		if len(procs) < minProcs {
			minProcs = len(procs)
		}
	}

	type rawPriority struct {
		pid int32
		raw float64
	}

	raws := make([]rawPriority, 0, len(s.Managed))
	maxRaw := 0.0
	for _, user := range sortedUsers(byUser) {
		procs := byUser[user]
		userWeight := float64(len(procs)) / float64(minProcs)

		totalCPU := 0.0
		for _, p := range procs {
			totalCPU += p.CPU
		}

		for _, p := range procs {
			processWeight := 1.0
			if p.CPU > 0 {
				processWeight = RoundToMultiple(totalCPU/p.CPU, processWeightStep)
				if processWeight == 0 {
					// a zero weight would pin the process at top priority
					processWeight = 1
				}
			}
			raw := processWeight * userWeight
			if raw > maxRaw {
				maxRaw = raw
			}
			raws = append(raws, rawPriority{pid: p.PID, raw: raw})
		}
	}

	rescale := NewRescaler(1, maxRaw, nicenessMin, nicenessMax)
	actions := make([]Action, 0, len(raws))
	for _, r := range raws {
		actions = append(actions, Renice(r.pid, int(math.RoundToEven(rescale(r.raw)))))
	}
	return actions
}

func sortedUsers(byUser map[string][]snapshot.ProcessSample) []string {
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
