// Package app implements the application layer for kiln.
package app

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/planner"
	"go.trai.ch/kiln/internal/engine/syncer"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	manifests ports.ManifestLoader
	lockfiles ports.LockfileStore
	resolver  *planner.Resolver
	driver    *syncer.Driver
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	manifests ports.ManifestLoader,
	lockfiles ports.LockfileStore,
	resolver *planner.Resolver,
	driver *syncer.Driver,
	log ports.Logger,
) *App {
	return &App{
		manifests: manifests,
		lockfiles: lockfiles,
		resolver:  resolver,
		driver:    driver,
		logger:    log,
	}
}

// LockOptions configuration for the Lock method.
type LockOptions struct {
	// Refresh forces re-resolution of every pair.
	Refresh bool

	// Parallelism bounds concurrent solver invocations. Zero means
	// runtime.NumCPU().
	Parallelism int
}

// PairReport is the outcome of one pair after a Lock or Sync run.
type PairReport struct {
	Pair      domain.PairKey
	Status    domain.PairStatus
	UpToDate  bool
	Conflicts int
	Err       error
}

// Lock resolves every stale or missing pair and persists the updated
// lockfile. Failures are scoped to their pair: the lockfile keeps the
// previous entry of a failed pair and all other pairs proceed. The
// returned reports cover every declared pair.
func (a *App) Lock(ctx context.Context, opts LockOptions) ([]PairReport, error) {
	manifest, lockfile, err := a.load()
	if err != nil {
		return nil, err
	}

	results, err := a.resolver.Resolve(ctx, manifest, lockfile, planner.Options{
		Refresh:     opts.Refresh,
		Parallelism: opts.Parallelism,
	})
	if err != nil {
		return nil, err
	}

	changed := false
	for _, pair := range manifest.Pairs() {
		res, ok := results[pair]
		if !ok || res.Status != domain.StatusResolved || res.UpToDate {
			continue
		}
		if entry, locked := lockfile.Get(pair); locked &&
			entry.InputHash == res.InputHash && entry.Record.Equal(&res.Record) {
			continue
		}
		lockfile.Apply(pair, res.Record, res.InputHash)
		changed = true
	}

	before := len(lockfile.Pairs)
	lockfile.Prune(manifest.Pairs())
	changed = changed || len(lockfile.Pairs) != before

	if changed {
		if err := a.lockfiles.Save(lockfile); err != nil {
			return nil, zerr.Wrap(err, "failed to persist lockfile")
		}
		a.logger.Info("lockfile updated")
	} else {
		a.logger.Info("lockfile up to date")
	}

	return reportsFor(manifest, results), nil
}

// SyncOptions configuration for the Sync method.
type SyncOptions struct {
	LockOptions

	// Root is the workspace root holding the environment prefixes.
	Root string
}

// Sync resolves stale pairs, persists the lockfile, and then brings every
// environment prefix in line with its locked record. Pairs synchronize
// concurrently; a failure in one pair never aborts the others.
func (a *App) Sync(ctx context.Context, opts SyncOptions) ([]PairReport, error) {
	reports, err := a.Lock(ctx, opts.LockOptions)
	if err != nil {
		return nil, err
	}

	lockfile, err := a.lockfiles.Load()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load lockfile")
	}

	root := opts.Root
	if root == "" {
		root = "."
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	g := new(errgroup.Group)
	g.SetLimit(parallelism)
	var mu sync.Mutex

	for i := range reports {
		report := &reports[i]
		if report.Status != domain.StatusResolved {
			// A pair that failed resolution keeps its failure report; the
			// installed environment is left untouched.
			continue
		}
		g.Go(func() error {
			result, err := a.driver.Sync(ctx, lockfile, report.Pair, domain.EnvPrefix(root, report.Pair))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Status = domain.StatusOutOfSync
				report.Err = err
				return nil
			}
			report.Status = domain.StatusSynced
			report.UpToDate = result.AlreadySynced
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, nil
}

// List returns the materialized packages locked for one environment,
// keyed by pair in canonical order. An empty environment name lists every
// environment.
func (a *App) List(envName string) (map[domain.PairKey][]domain.Package, error) {
	manifest, lockfile, err := a.load()
	if err != nil {
		return nil, err
	}

	if envName != "" {
		if _, ok := manifest.Environments[envName]; !ok {
			return nil, zerr.With(domain.ErrUnknownEnvironment, "environment", envName)
		}
	}

	listing := make(map[domain.PairKey][]domain.Package)
	for _, pair := range manifest.Pairs() {
		if envName != "" && pair.Environment != envName {
			continue
		}
		entry, ok := lockfile.Get(pair)
		if !ok {
			continue
		}
		listing[pair] = entry.Record.Materialized()
	}
	return listing, nil
}

// Summary renders the per-pair reports for terminal output.
func (a *App) Summary(reports []PairReport) string {
	rows := make([]output.SummaryRow, 0, len(reports))
	for _, report := range reports {
		row := output.SummaryRow{
			Pair:   report.Pair.String(),
			Status: string(report.Status),
		}
		switch {
		case report.Err != nil:
			row.Failed = true
			row.Detail = report.Err.Error()
		case report.UpToDate:
			row.Detail = "up to date"
		case report.Conflicts > 0:
			row.Detail = fmt.Sprintf("%d conflicts", report.Conflicts)
		}
		rows = append(rows, row)
	}
	return output.RenderSummary(rows)
}

// Failed reports whether any pair ended in a failure state.
func Failed(reports []PairReport) bool {
	for _, report := range reports {
		if report.Err != nil {
			return true
		}
	}
	return false
}

func (a *App) load() (*domain.Manifest, *domain.Lockfile, error) {
	manifest, err := a.manifests.Load(".")
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load manifest")
	}
	if err := manifest.Validate(); err != nil {
		return nil, nil, zerr.Wrap(err, "invalid manifest")
	}

	lockfile, err := a.lockfiles.Load()
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load lockfile")
	}
	return manifest, lockfile, nil
}

func reportsFor(manifest *domain.Manifest, results map[domain.PairKey]planner.PairResult) []PairReport {
	reports := make([]PairReport, 0, len(results))
	for _, pair := range manifest.Pairs() {
		res, ok := results[pair]
		if !ok {
			reports = append(reports, PairReport{Pair: pair, Status: domain.StatusUnresolved})
			continue
		}
		reports = append(reports, PairReport{
			Pair:      pair,
			Status:    res.Status,
			UpToDate:  res.UpToDate,
			Conflicts: len(res.Conflicts),
			Err:       res.Err,
		})
	}
	slices.SortStableFunc(reports, func(a, b PairReport) int {
		return domain.ComparePairs(a.Pair, b.Pair)
	})
	return reports
}
