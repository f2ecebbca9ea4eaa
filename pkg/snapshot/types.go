package snapshot

import "time"

// ProcessSample is a single process observation within one snapshot.
// CPU and Memory are utilization percentages as reported by the OS and are
// not independently validated.
type ProcessSample struct {
	PID      int32   `json:"pid" yaml:"pid"`
	User     string  `json:"user" yaml:"user"`
	Niceness int     `json:"niceness" yaml:"niceness"`
	CPU      float64 `json:"cpu" yaml:"cpu"`
	Memory   float64 `json:"memory" yaml:"memory"`
	Command  string  `json:"command" yaml:"command"`
}

// LoadAverages holds the 1, 5 and 15 minute system load averages.
type LoadAverages struct {
	Load1  float64 `json:"load1" yaml:"load1"`
	Load5  float64 `json:"load5" yaml:"load5"`
	Load15 float64 `json:"load15" yaml:"load15"`
}

// Snapshot is an immutable point-in-time view of system state. It is captured
// fresh each governor cycle, consumed entirely within that cycle, and
// discarded; nothing in it persists across cycles.
//
// Managed holds the detailed high-CPU samples the priority rules operate on;
// Table holds the full process listing used for quota enforcement and owner
// lookups. DiskUsage maps user names to home directory usage in KiB.
type Snapshot struct {
	Taken     time.Time        `json:"taken" yaml:"taken"`
	Load      LoadAverages     `json:"load" yaml:"load"`
	Managed   []ProcessSample  `json:"managed" yaml:"managed"`
	Table     []ProcessSample  `json:"table" yaml:"table"`
	DiskUsage map[string]int64 `json:"diskUsage" yaml:"diskUsage"`
	Users     []string         `json:"users" yaml:"users"`
}

// HasUser reports whether name is in the snapshot's valid-account set, i.e.
// owned a home directory at collection time. Only such users participate in
// fairness and quota decisions.
func (s *Snapshot) HasUser(name string) bool {
	for _, u := range s.Users {
		if u == name {
			return true
		}
	}
	return false
}

// ManagedByUser groups the managed samples by owning user, dropping samples
// whose owner is not a valid account.
func (s *Snapshot) ManagedByUser() map[string][]ProcessSample {
	return groupByUser(s, s.Managed)
}

// TableByUser groups the full process table by owning user, dropping samples
// whose owner is not a valid account.
func (s *Snapshot) TableByUser() map[string][]ProcessSample {
	return groupByUser(s, s.Table)
}

func groupByUser(s *Snapshot, samples []ProcessSample) map[string][]ProcessSample {
	byUser := make(map[string][]ProcessSample)
	for _, ps := range samples {
		if !s.HasUser(ps.User) {
			continue
		}
		byUser[ps.User] = append(byUser[ps.User], ps)
	}
	return byUser
}
