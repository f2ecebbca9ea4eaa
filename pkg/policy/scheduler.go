package policy

import (
	"fmt"
	"strings"

	"github.com/fairshared/fairshared/pkg/errors"
	"github.com/fairshared/fairshared/pkg/snapshot"
)

// Scheduler is a priority strategy: a pure mapping from a snapshot to the
// enforcement actions that realize the strategy. Implementations must not
// mutate the snapshot or carry state across invocations.
type Scheduler interface {
	Name() string
	Plan(s *snapshot.Snapshot) []Action
}

// SchedulerKind enumerates the closed set of priority strategies.
type SchedulerKind string

const (
	// SchedulerFairShare equalizes aggregate CPU share per user.
	SchedulerFairShare SchedulerKind = "fair-share-only"
	// SchedulerRAMPenalty demotes users whose aggregate memory use exceeds
	// the configured threshold.
	SchedulerRAMPenalty SchedulerKind = "ram-penalty-only"
	// SchedulerHybrid runs fair-share first, then applies the RAM penalty
	// as an override for offending users.
	SchedulerHybrid SchedulerKind = "hybrid"
	// SchedulerRestore resets every managed process to neutral priority.
	SchedulerRestore SchedulerKind = "reset-to-neutral"
)

// ParseSchedulerKind converts a configured scheduler name into a
// SchedulerKind. Unknown names are a startup configuration error; they are
// rejected here, at construction time, never at first invocation.
func ParseSchedulerKind(s string) (SchedulerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fair-share-only", "fair-share", "fairshare":
		return SchedulerFairShare, nil
	case "ram-penalty-only", "ram-penalty":
		return SchedulerRAMPenalty, nil
	case "hybrid", "":
		return SchedulerHybrid, nil
	case "reset-to-neutral", "restore", "none":
		return SchedulerRestore, nil
	default:
		return "", errors.New(errors.ErrCodeStartupConfig,
			fmt.Sprintf("unknown scheduler %q (valid: %s, %s, %s, %s)",
				s, SchedulerFairShare, SchedulerRAMPenalty, SchedulerHybrid, SchedulerRestore))
	}
}

// NewScheduler constructs the Scheduler for a kind. ramIntervene is the
// aggregate memory-percentage threshold used by the RAM penalty rule.
func NewScheduler(kind SchedulerKind, ramIntervene float64) (Scheduler, error) {
	switch kind {
	case SchedulerFairShare:
		return &FairShare{}, nil
	case SchedulerRAMPenalty:
		return &RAMPenalty{Threshold: ramIntervene}, nil
	case SchedulerHybrid:
		return &Hybrid{
			FairShare:  &FairShare{},
			RAMPenalty: &RAMPenalty{Threshold: ramIntervene},
		}, nil
	case SchedulerRestore:
		return &Restore{}, nil
	default:
		return nil, errors.New(errors.ErrCodeStartupConfig,
			fmt.Sprintf("unknown scheduler kind %q", kind))
	}
}
