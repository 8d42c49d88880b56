package domain

import "go.trai.ch/zerr"

var (
	// ErrUnsatisfiable is returned when a solver cannot find a valid package
	// set for one pair. It is scoped to the pair, never fatal to others.
	ErrUnsatisfiable = zerr.New("unsatisfiable constraints")

	// ErrMetadataUnavailable is returned when a metadata source cannot be
	// fetched. Retrying is the caller's decision.
	ErrMetadataUnavailable = zerr.New("metadata unavailable")

	// ErrCrossEcosystemConflict is returned when the reconciler detects
	// incompatible claims between the two ecosystems.
	ErrCrossEcosystemConflict = zerr.New("cross-ecosystem conflict")

	// ErrStaleLockfile marks a lockfile entry whose input hash no longer
	// matches the manifest. Advisory: it triggers re-resolution.
	ErrStaleLockfile = zerr.New("stale lockfile entry")

	// ErrSynchronizationMismatch is returned when the installed state
	// disagrees with the locked record after a sync. Fatal for the pair.
	ErrSynchronizationMismatch = zerr.New("installed state does not match lockfile")

	// ErrMissingInterpreter is returned when language specs exist but the
	// binary result provides no interpreter to resolve them against.
	ErrMissingInterpreter = zerr.New("no interpreter in binary result")

	// ErrDuplicatePackage is returned when a resolved record contains two
	// packages with the same normalized name in one ecosystem.
	ErrDuplicatePackage = zerr.New("duplicate package in record")

	// ErrUnknownEnvironment is returned when an environment is referenced
	// but not declared.
	ErrUnknownEnvironment = zerr.New("unknown environment")

	// ErrUnknownFeature is returned when an environment references an
	// undeclared feature.
	ErrUnknownFeature = zerr.New("unknown feature")

	// ErrNoPlatforms is returned when a manifest or environment declares no
	// target platform.
	ErrNoPlatforms = zerr.New("no platforms declared")

	// ErrPartialInstall is returned when the installer completed only part
	// of its operation list.
	ErrPartialInstall = zerr.New("installer applied operations partially")

	// ErrPairNotLocked is returned when synchronization is requested for a
	// pair that has no lockfile entry.
	ErrPairNotLocked = zerr.New("pair not present in lockfile")
)
