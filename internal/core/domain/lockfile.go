package domain

import "slices"

// LockfileVersion is the current lockfile schema version.
const LockfileVersion = 1

// PairKey identifies one (environment, platform) resolution unit.
type PairKey struct {
	Environment string
	Platform    Platform
}

// String renders the pair as "environment/platform" for logs and errors.
func (k PairKey) String() string {
	return k.Environment + "/" + string(k.Platform)
}

// ComparePairs orders pairs by environment, then platform.
func ComparePairs(a, b PairKey) int {
	switch {
	case a.Environment < b.Environment:
		return -1
	case a.Environment > b.Environment:
		return 1
	case a.Platform < b.Platform:
		return -1
	case a.Platform > b.Platform:
		return 1
	default:
		return 0
	}
}

// LockedPair is one pair's entry in the lockfile: the resolved record plus
// the hash of the manifest inputs that produced it.
type LockedPair struct {
	// InputHash is Manifest.InputHash at the time the pair was resolved.
	// A mismatch with the current manifest marks the pair stale.
	InputHash string

	// Record is the exact resolved package set.
	Record ResolvedRecord
}

// Lockfile maps every (environment, platform) pair to its resolved record.
// It is mutated only through Apply and persisted by a store that replaces
// the file atomically.
type Lockfile struct {
	Version int
	Pairs   map[PairKey]LockedPair
}

// NewLockfile returns an empty lockfile at the current schema version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version: LockfileVersion,
		Pairs:   make(map[PairKey]LockedPair),
	}
}

// Get returns the locked entry for a pair, if present.
func (l *Lockfile) Get(pair PairKey) (LockedPair, bool) {
	entry, ok := l.Pairs[pair]
	return entry, ok
}

// IsStale reports whether the pair exists with an input hash that no
// longer matches the current manifest hash.
func (l *Lockfile) IsStale(pair PairKey, currentHash string) bool {
	entry, ok := l.Pairs[pair]
	return ok && entry.InputHash != currentHash
}

// Apply replaces a single pair's record and input hash. All other pairs
// are untouched, which keeps the persisted output minimal-diff.
func (l *Lockfile) Apply(pair PairKey, record ResolvedRecord, inputHash string) {
	record.Sort()
	l.Pairs[pair] = LockedPair{InputHash: inputHash, Record: record}
}

// Prune drops pairs that are no longer declared by the manifest.
func (l *Lockfile) Prune(valid []PairKey) {
	keep := make(map[PairKey]bool, len(valid))
	for _, pair := range valid {
		keep[pair] = true
	}
	for pair := range l.Pairs {
		if !keep[pair] {
			delete(l.Pairs, pair)
		}
	}
}

// SortedPairs returns the lockfile's pair keys in canonical order.
func (l *Lockfile) SortedPairs() []PairKey {
	pairs := make([]PairKey, 0, len(l.Pairs))
	for pair := range l.Pairs {
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, ComparePairs)
	return pairs
}
