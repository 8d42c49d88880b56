// Package syncer drives installed environments toward the lockfile.
package syncer

import (
	"context"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Result reports the outcome of synchronizing one pair.
type Result struct {
	Pair       domain.PairKey
	Operations []domain.Operation

	// AlreadySynced is true when the installed state matched the locked
	// record and no operations were issued.
	AlreadySynced bool
}

// Driver translates a lockfile entry into ordered installer operations
// and verifies the result. It is a thin layer over the installer
// collaborator: operation ordering and post-apply verification live here,
// file placement does not.
type Driver struct {
	states    ports.EnvStateStore
	installer ports.Installer
	tracer    ports.Tracer
	logger    ports.Logger
}

// NewDriver creates a new synchronization Driver.
func NewDriver(
	states ports.EnvStateStore,
	installer ports.Installer,
	tracer ports.Tracer,
	logger ports.Logger,
) *Driver {
	return &Driver{
		states:    states,
		installer: installer,
		tracer:    tracer,
		logger:    logger,
	}
}

// Sync brings the environment prefix in line with the locked record for
// the pair. Operations are ordered removals first, then updates, then
// installs, to bound peak disk usage. After the installer returns, the
// installed state is re-read and compared against the record; a mismatch
// is reported, never silently retried.
func (d *Driver) Sync(ctx context.Context, lockfile *domain.Lockfile, pair domain.PairKey, prefix string) (Result, error) {
	ctx, span := d.tracer.Start(ctx, "sync "+pair.String())
	defer span.End()

	entry, ok := lockfile.Get(pair)
	if !ok {
		err := zerr.With(domain.ErrPairNotLocked, "pair", pair.String())
		span.RecordError(err)
		return Result{Pair: pair}, err
	}

	installed, err := d.states.Read(prefix)
	if err != nil {
		span.RecordError(err)
		return Result{Pair: pair}, zerr.Wrap(err, "failed to read installed state")
	}

	locked := entry.Record.Materialized()
	diff := domain.DiffPackages(installed.Packages, locked)
	if diff.Empty() {
		return Result{Pair: pair, AlreadySynced: true}, nil
	}

	ops := domain.OperationsFromDiff(diff)
	span.SetAttribute("operations", len(ops))

	completed, err := d.installer.Apply(ctx, ops, prefix)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "installer failed"), "pair", pair.String())
		err = zerr.With(err, "completed_operations", len(completed))
		span.RecordError(err)
		return Result{Pair: pair, Operations: ops}, err
	}

	if err := d.verify(prefix, locked); err != nil {
		span.RecordError(err)
		return Result{Pair: pair, Operations: ops}, zerr.With(err, "pair", pair.String())
	}

	return Result{Pair: pair, Operations: ops}, nil
}

// verify re-reads the installed state and asserts it now matches the
// locked record exactly. Detecting a mismatch here instead of retrying
// avoids masking partial-install bugs.
func (d *Driver) verify(prefix string, locked []domain.Package) error {
	state, err := d.states.Read(prefix)
	if err != nil {
		return zerr.Wrap(err, "failed to re-read installed state")
	}

	diff := domain.DiffPackages(state.Packages, locked)
	if diff.Empty() {
		return nil
	}

	var names []string
	for _, pkg := range diff.Added {
		names = append(names, "missing "+pkg.Key().Name)
	}
	for _, pkg := range diff.Removed {
		names = append(names, "extra "+pkg.Key().Name)
	}
	for _, change := range diff.Changed {
		names = append(names, "mismatched "+change.New.Key().Name)
	}
	return zerr.With(domain.ErrSynchronizationMismatch, "packages", strings.Join(names, ", "))
}
