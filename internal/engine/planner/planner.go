// Package planner computes and executes the minimal set of resolution
// tasks needed to bring the lockfile in line with the manifest.
package planner

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/reconcile"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ResolutionTask is one solver invocation covering one or more pairs.
// Pairs that share an identical effective spec set for the same platform,
// or that belong to the same solve group, are deduplicated into a single
// task whose result is fanned out to every member.
type ResolutionTask struct {
	// Pairs are the members this task resolves, in manifest order.
	Pairs []domain.PairKey

	// Platform is the shared resolution target.
	Platform domain.Platform

	// BinarySpecs and LanguageSpecs are the effective spec sets.
	BinarySpecs   []domain.Spec
	LanguageSpecs []domain.Spec

	// InputHashes maps each member pair to its current manifest hash.
	InputHashes map[domain.PairKey]string
}

// PairResult is the outcome of resolution for one pair.
type PairResult struct {
	Pair      domain.PairKey
	Status    domain.PairStatus
	Record    domain.ResolvedRecord
	InputHash string

	// Conflicts holds reconciliation conflicts; the record is still
	// usable when conflicts exist.
	Conflicts []reconcile.Conflict

	// UpToDate marks pairs that needed no solver invocation.
	UpToDate bool

	// Err is the structured failure reason when Status is Failed.
	Err error
}

// Options configures a resolution run.
type Options struct {
	// Refresh forces re-resolution of every pair regardless of staleness.
	Refresh bool

	// Parallelism bounds concurrent solver invocations. Zero means
	// runtime.NumCPU().
	Parallelism int
}

// Resolver plans and executes resolution tasks. Pairs run concurrently up
// to the parallelism bound; within one pair the binary solver always
// completes before the language resolver starts.
type Resolver struct {
	binary   ports.BinarySolver
	language ports.LanguageResolver
	metadata ports.MetadataSource
	tracer   ports.Tracer
	logger   ports.Logger

	mu     sync.RWMutex
	status map[domain.PairKey]domain.PairStatus
}

// NewResolver creates a new Resolver with the given collaborators.
func NewResolver(
	binary ports.BinarySolver,
	language ports.LanguageResolver,
	metadata ports.MetadataSource,
	tracer ports.Tracer,
	logger ports.Logger,
) *Resolver {
	return &Resolver{
		binary:   binary,
		language: language,
		metadata: metadata,
		tracer:   tracer,
		logger:   logger,
		status:   make(map[domain.PairKey]domain.PairStatus),
	}
}

// Status returns the last observed status of a pair.
func (r *Resolver) Status(pair domain.PairKey) domain.PairStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.status[pair]; ok {
		return s
	}
	return domain.StatusUnresolved
}

func (r *Resolver) setStatus(pair domain.PairKey, status domain.PairStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[pair] = status
}

// Plan computes the resolution tasks needed for the manifest given the
// existing lockfile. A pair needs resolving iff no locked record exists,
// the stored input hash differs from the current manifest hash, or
// refresh is forced. A pair whose solve group contains any member that
// needs resolving is planned too: the group shares one invocation, so its
// members must keep identical pins.
func (r *Resolver) Plan(manifest *domain.Manifest, lockfile *domain.Lockfile, refresh bool) []ResolutionTask {
	type group struct {
		task ResolutionTask
	}

	pairs := manifest.Pairs()
	hashes := make(map[domain.PairKey]string, len(pairs))
	needs := make(map[domain.PairKey]bool, len(pairs))
	groupNeeds := make(map[string]bool)

	for _, pair := range pairs {
		hash := manifest.InputHash(pair.Environment, pair.Platform)
		hashes[pair] = hash

		stale := lockfile.IsStale(pair, hash)
		if stale {
			r.setStatus(pair, domain.StatusStale)
		}
		_, locked := lockfile.Get(pair)
		needs[pair] = !locked || refresh || stale
		if needs[pair] {
			groupNeeds[r.groupKey(manifest, pair, hash)] = true
		}
	}

	groups := make(map[string]*group)
	var order []string

	for _, pair := range pairs {
		hash := hashes[pair]
		key := r.groupKey(manifest, pair, hash)
		if !needs[pair] && !(solveGroup(manifest, pair) != "" && groupNeeds[key]) {
			r.setStatus(pair, domain.StatusResolved)
			continue
		}

		g, ok := groups[key]
		if !ok {
			binarySpecs, languageSpecs := manifest.SpecsFor(pair.Environment, pair.Platform)
			g = &group{task: ResolutionTask{
				Platform:      pair.Platform,
				BinarySpecs:   binarySpecs,
				LanguageSpecs: languageSpecs,
				InputHashes:   make(map[domain.PairKey]string),
			}}
			groups[key] = g
			order = append(order, key)
		} else if solveGroup(manifest, pair) != "" {
			// Solve groups union their members' specs; the later-declared
			// environment wins on a duplicate key.
			binarySpecs, languageSpecs := manifest.SpecsFor(pair.Environment, pair.Platform)
			g.task.BinarySpecs = mergeSpecs(g.task.BinarySpecs, binarySpecs)
			g.task.LanguageSpecs = mergeSpecs(g.task.LanguageSpecs, languageSpecs)
		}
		g.task.Pairs = append(g.task.Pairs, pair)
		g.task.InputHashes[pair] = hash
	}

	tasks := make([]ResolutionTask, 0, len(order))
	for _, key := range order {
		tasks = append(tasks, groups[key].task)
	}
	return tasks
}

// groupKey buckets pairs that may share one solver invocation: members of
// a solve group, or pairs with byte-identical resolution inputs.
func (r *Resolver) groupKey(manifest *domain.Manifest, pair domain.PairKey, hash string) string {
	if sg := solveGroup(manifest, pair); sg != "" {
		return "group:" + sg + "@" + string(pair.Platform)
	}
	return "hash:" + hash + "@" + string(pair.Platform)
}

func solveGroup(manifest *domain.Manifest, pair domain.PairKey) string {
	return manifest.Environments[pair.Environment].SolveGroup
}

func mergeSpecs(base, extra []domain.Spec) []domain.Spec {
	merged := make(map[domain.SpecKey]domain.Spec, len(base)+len(extra))
	for _, spec := range base {
		merged[spec.Key()] = spec
	}
	for _, spec := range extra {
		merged[spec.Key()] = spec
	}
	out := make([]domain.Spec, 0, len(merged))
	for _, spec := range merged {
		out = append(out, spec)
	}
	slices.SortFunc(out, domain.CompareSpecs)
	return out
}

// Resolve executes the planned tasks concurrently and returns the result
// for every pair of the manifest, including up-to-date pairs that needed
// no solving. A task failure is scoped to its member pairs; independent
// tasks continue. The returned error is non-nil only on cancellation.
func (r *Resolver) Resolve(
	ctx context.Context,
	manifest *domain.Manifest,
	lockfile *domain.Lockfile,
	opts Options,
) (map[domain.PairKey]PairResult, error) {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	tasks := r.Plan(manifest, lockfile, opts.Refresh)

	results := make(map[domain.PairKey]PairResult)
	var resultsMu sync.Mutex

	// Pairs that need no solver invocation carry their locked record
	// forward unchanged (idempotence: no spurious churn).
	for _, pair := range manifest.Pairs() {
		if entry, ok := lockfile.Get(pair); ok && r.Status(pair) == domain.StatusResolved {
			results[pair] = PairResult{
				Pair:      pair,
				Status:    domain.StatusResolved,
				Record:    entry.Record,
				InputHash: entry.InputHash,
				UpToDate:  true,
			}
		}
	}

	planned := make([]string, 0, len(tasks))
	for _, task := range tasks {
		for _, pair := range task.Pairs {
			planned = append(planned, pair.String())
		}
	}
	r.tracer.EmitPlan(ctx, planned)

	g := new(errgroup.Group)
	g.SetLimit(parallelism)

	for _, task := range tasks {
		g.Go(func() error {
			if ctx.Err() != nil {
				// Cancelled before starting: pairs stay unresolved and the
				// lockfile is never touched for them.
				return nil
			}
			for _, pair := range task.Pairs {
				r.setStatus(pair, domain.StatusResolving)
			}

			record, conflicts, err := r.resolveTask(ctx, manifest, task)

			resultsMu.Lock()
			defer resultsMu.Unlock()
			for _, pair := range task.Pairs {
				res := PairResult{
					Pair:      pair,
					InputHash: task.InputHashes[pair],
					Conflicts: conflicts,
				}
				if err != nil {
					res.Status = domain.StatusFailed
					res.Err = zerr.With(err, "pair", pair.String())
					r.setStatus(pair, domain.StatusFailed)
				} else {
					res.Status = domain.StatusResolved
					res.Record = record
					r.setStatus(pair, domain.StatusResolved)
				}
				results[pair] = res
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// resolveTask runs one solver invocation: metadata warm-up, binary solve,
// then (when language specs exist) language resolution with the binary
// result as interpreter context, then reconciliation.
func (r *Resolver) resolveTask(
	ctx context.Context,
	manifest *domain.Manifest,
	task ResolutionTask,
) (domain.ResolvedRecord, []reconcile.Conflict, error) {
	ctx, span := r.tracer.Start(ctx, "resolve "+task.Pairs[0].String())
	defer span.End()
	span.SetAttribute("platform", string(task.Platform))
	span.SetAttribute("fanout", len(task.Pairs))

	for _, channel := range manifest.Channels {
		if _, err := r.metadata.Fetch(ctx, channel.Name, task.Platform); err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrMetadataUnavailable.Error()), "channel", channel.Name)
			span.RecordError(err)
			return domain.ResolvedRecord{}, nil, err
		}
	}

	binaryResult, err := r.binary.Solve(ctx, task.BinarySpecs, task.Platform, manifest.Channels)
	if err != nil {
		span.RecordError(err)
		return domain.ResolvedRecord{}, nil, zerr.Wrap(err, "binary resolution failed")
	}

	var languageResult []domain.Package
	if len(task.LanguageSpecs) > 0 {
		interp, err := domain.NewInterpreterContext(task.Platform, binaryResult)
		if err != nil {
			span.RecordError(err)
			return domain.ResolvedRecord{}, nil, err
		}
		languageResult, err = r.language.Resolve(ctx, task.LanguageSpecs, task.Platform, interp)
		if err != nil {
			span.RecordError(err)
			return domain.ResolvedRecord{}, nil, zerr.Wrap(err, "language resolution failed")
		}
	}

	record, conflicts, err := reconcile.Merge(binaryResult, languageResult, manifest.ExclusionSet())
	if err != nil {
		span.RecordError(err)
		return domain.ResolvedRecord{}, nil, err
	}
	for _, conflict := range conflicts {
		warn := zerr.With(domain.ErrCrossEcosystemConflict, "package", conflict.Package.Name.String())
		r.logger.Warn(zerr.With(warn, "requires", conflict.Requirement).Error())
	}
	return record, conflicts, nil
}
