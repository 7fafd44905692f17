// Package invariants checks the core invariants of a stele installation.
package invariants

// Core invariants
const (
	CommitLogAppendOnly = "commit-log-append-only"
	IDsImmutable        = "ids-immutable"
	SnapshotConsistency = "snapshot-consistency"
	ClockMonotonic      = "clock-monotonic"
	ConfigVersionSet    = "config-version-set"
	StoragePathSet      = "storage-path-set"
)

// Core lists all core invariants, in the order they are checked
func Core() []string {
	return []string{
		CommitLogAppendOnly,
		IDsImmutable,
		SnapshotConsistency,
		ClockMonotonic,
		ConfigVersionSet,
		StoragePathSet,
	}
}

// State is an observation of an installation.
//
// The zero value violates every invariant but ids-immutable.
type State struct {
	// CommitLog holds the tokens of the audit records. A nil log is not a log.
	CommitLog           []string `json:"commit_log" yaml:"commit_log"`
	IDsMutable          bool     `json:"ids_mutable" yaml:"ids_mutable"`
	SnapshotsConsistent bool     `json:"snapshots_consistent" yaml:"snapshots_consistent"`
	ClockMonotonic      bool     `json:"clock_monotonic" yaml:"clock_monotonic"`
	Version             string   `json:"version" yaml:"version"`
	StoragePath         string   `json:"storage_path" yaml:"storage_path"`
}

// Check returns the violated invariants. An empty result means all invariants hold.
func Check(s State) []string {
	violated := make([]string, 0, len(Core()))

	if s.CommitLog == nil {
		violated = append(violated, CommitLogAppendOnly)
	}
	if s.IDsMutable {
		violated = append(violated, IDsImmutable)
	}
	if !s.SnapshotsConsistent {
		violated = append(violated, SnapshotConsistency)
	}
	if !s.ClockMonotonic {
		violated = append(violated, ClockMonotonic)
	}
	if s.Version == "" {
		violated = append(violated, ConfigVersionSet)
	}
	if s.StoragePath == "" {
		violated = append(violated, StoragePathSet)
	}
	return violated
}
