package domain

// PairStatus is the lifecycle state of one (environment, platform) pair.
type PairStatus string

const (
	// StatusUnresolved indicates no resolved record exists for the pair.
	StatusUnresolved PairStatus = "Unresolved"
	// StatusResolving indicates a solver invocation is in flight.
	StatusResolving PairStatus = "Resolving"
	// StatusResolved indicates a valid record exists for the current manifest.
	StatusResolved PairStatus = "Resolved"
	// StatusFailed indicates resolution failed; terminal until re-triggered.
	StatusFailed PairStatus = "Failed"
	// StatusStale indicates the manifest changed after the pair was resolved.
	StatusStale PairStatus = "Stale"
	// StatusSynced indicates the installed environment matches the record.
	StatusSynced PairStatus = "Synced"
	// StatusOutOfSync indicates the installed environment diverged from the
	// record; detected lazily on the next sync attempt.
	StatusOutOfSync PairStatus = "OutOfSync"
)

// pairTransitions is the allowed state machine per pair.
var pairTransitions = map[PairStatus][]PairStatus{
	StatusUnresolved: {StatusResolving},
	StatusResolving:  {StatusResolved, StatusFailed},
	StatusResolved:   {StatusStale, StatusSynced, StatusResolving},
	StatusFailed:     {StatusResolving},
	StatusStale:      {StatusResolving},
	StatusSynced:     {StatusOutOfSync, StatusStale},
	StatusOutOfSync:  {StatusResolving, StatusSynced},
}

// CanTransition reports whether the state machine permits moving from s
// to next.
func (s PairStatus) CanTransition(next PairStatus) bool {
	for _, allowed := range pairTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InstalledState is the on-disk record of which packages are currently
// materialized for one (environment, platform) pair.
type InstalledState struct {
	Packages []Package
}
