package planner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/planner"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type resolverMocks struct {
	binary   *mocks.MockBinarySolver
	language *mocks.MockLanguageResolver
	metadata *mocks.MockMetadataSource
	tracer   *mocks.MockTracer
	logger   *mocks.MockLogger
}

// newTestResolver wires a Resolver against mocks with optimistic telemetry
// defaults, so individual tests only declare the solver behavior they care
// about.
func newTestResolver(t *testing.T) (*planner.Resolver, *resolverMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &resolverMocks{
		binary:   mocks.NewMockBinarySolver(ctrl),
		language: mocks.NewMockLanguageResolver(ctrl),
		metadata: mocks.NewMockMetadataSource(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	m.tracer.EXPECT().
		Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).
		AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()

	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	resolver := planner.NewResolver(m.binary, m.language, m.metadata, m.tracer, m.logger)
	return resolver, m
}

// plannerManifest declares one platform and two environments: "default"
// with binary and language specs, and "tools" with a disjoint binary-only
// spec set.
func plannerManifest() *domain.Manifest {
	return &domain.Manifest{
		Name:      "demo",
		Platforms: []domain.Platform{"linux-64"},
		Channels:  []domain.Channel{{Name: "main", Priority: 1}},
		Features: map[string]domain.Feature{
			"default": {
				Name: "default",
				Specs: []domain.Spec{
					{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("python"), Constraint: ">=3.10"},
					{Ecosystem: domain.EcosystemLanguage, Name: domain.NewInternedString("requests"), Constraint: ">=2.0"},
				},
			},
			"tools": {
				Name: "tools",
				Specs: []domain.Spec{
					{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("ripgrep")},
				},
			},
		},
		FeatureOrder: []string{"default", "tools"},
		Environments: map[string]domain.Environment{
			"default": {Name: "default", Features: []string{"default"}},
			"tools":   {Name: "tools", Features: []string{"tools"}},
		},
		EnvironmentOrder: []string{"default", "tools"},
	}
}

func binaryResult() []domain.Package {
	return []domain.Package{
		{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("python"), Version: "3.11.4"},
	}
}

func languageResult() []domain.Package {
	return []domain.Package{
		{Ecosystem: domain.EcosystemLanguage, Name: domain.NewInternedString("requests"), Version: "2.31.0"},
	}
}

func TestResolver_Plan(t *testing.T) {
	t.Run("Empty lockfile plans every pair", func(t *testing.T) {
		resolver, _ := newTestResolver(t)
		tasks := resolver.Plan(plannerManifest(), domain.NewLockfile(), false)
		assert.Len(t, tasks, 2)
	})

	t.Run("Identical inputs share one task", func(t *testing.T) {
		resolver, _ := newTestResolver(t)
		manifest := plannerManifest()
		manifest.Environments["clone"] = domain.Environment{Name: "clone", Features: []string{"default"}}
		manifest.EnvironmentOrder = append(manifest.EnvironmentOrder, "clone")

		tasks := resolver.Plan(manifest, domain.NewLockfile(), false)
		require.Len(t, tasks, 2, "default and clone dedupe into one invocation")
		assert.Equal(t, []domain.PairKey{
			{Environment: "default", Platform: "linux-64"},
			{Environment: "clone", Platform: "linux-64"},
		}, tasks[0].Pairs)
	})

	t.Run("Solve group unions member specs", func(t *testing.T) {
		resolver, _ := newTestResolver(t)
		manifest := plannerManifest()
		for _, name := range []string{"default", "tools"} {
			env := manifest.Environments[name]
			env.SolveGroup = "shared"
			manifest.Environments[name] = env
		}

		tasks := resolver.Plan(manifest, domain.NewLockfile(), false)
		require.Len(t, tasks, 1)
		assert.Len(t, tasks[0].Pairs, 2)
		assert.True(t, containsSpec(tasks[0].BinarySpecs, "python"))
		assert.True(t, containsSpec(tasks[0].BinarySpecs, "ripgrep"))
	})

	t.Run("Solve group pulls in fresh members", func(t *testing.T) {
		resolver, _ := newTestResolver(t)
		manifest := plannerManifest()
		for _, name := range []string{"default", "tools"} {
			env := manifest.Environments[name]
			env.SolveGroup = "shared"
			manifest.Environments[name] = env
		}

		// tools is locked and current, default is not; the shared group
		// still solves as one invocation with every member's specs.
		lockfile := domain.NewLockfile()
		tools := domain.PairKey{Environment: "tools", Platform: "linux-64"}
		lockfile.Apply(tools, domain.ResolvedRecord{}, manifest.InputHash("tools", "linux-64"))

		tasks := resolver.Plan(manifest, lockfile, false)
		require.Len(t, tasks, 1)
		assert.Equal(t, []domain.PairKey{
			{Environment: "default", Platform: "linux-64"},
			tools,
		}, tasks[0].Pairs)
		assert.True(t, containsSpec(tasks[0].BinarySpecs, "python"))
		assert.True(t, containsSpec(tasks[0].BinarySpecs, "ripgrep"))
		assert.Contains(t, tasks[0].InputHashes, tools, "the fresh member's hash is carried for fan-out")
	})

	t.Run("Locked pairs are skipped unless stale or refreshed", func(t *testing.T) {
		resolver, _ := newTestResolver(t)
		manifest := plannerManifest()
		lockfile := domain.NewLockfile()
		pair := domain.PairKey{Environment: "default", Platform: "linux-64"}
		lockfile.Apply(pair, domain.ResolvedRecord{}, manifest.InputHash("default", "linux-64"))

		tasks := resolver.Plan(manifest, lockfile, false)
		require.Len(t, tasks, 1, "only the unlocked pair is planned")
		assert.Equal(t, "tools", tasks[0].Pairs[0].Environment)

		tasks = resolver.Plan(manifest, lockfile, true)
		assert.Len(t, tasks, 2, "refresh re-plans locked pairs")
	})

	t.Run("Stale hash re-plans the pair", func(t *testing.T) {
		resolver, _ := newTestResolver(t)
		manifest := plannerManifest()
		lockfile := domain.NewLockfile()
		pair := domain.PairKey{Environment: "default", Platform: "linux-64"}
		lockfile.Apply(pair, domain.ResolvedRecord{}, "outdated-hash")

		tasks := resolver.Plan(manifest, lockfile, false)
		assert.Len(t, tasks, 2)
	})
}

func TestResolver_Resolve(t *testing.T) {
	resolver, m := newTestResolver(t)
	manifest := plannerManifest()

	m.metadata.EXPECT().
		Fetch(gomock.Any(), "main", domain.Platform("linux-64")).
		Return(&domain.PackageIndex{}, nil).
		Times(2)

	// Within one pair the binary solver always completes before the
	// language resolver starts.
	gomock.InOrder(
		m.binary.EXPECT().
			Solve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), manifest.Channels).
			DoAndReturn(func(_ context.Context, specs []domain.Spec, _ domain.Platform, _ []domain.Channel) ([]domain.Package, error) {
				require.True(t, containsSpec(specs, "python"))
				return binaryResult(), nil
			}),
		m.language.EXPECT().
			Resolve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ []domain.Spec, _ domain.Platform, interp domain.InterpreterContext) ([]domain.Package, error) {
				assert.Equal(t, "3.11.4", interp.Version)
				return languageResult(), nil
			}),
	)

	// The tools environment has no language specs: the resolver is never
	// consulted for it.
	m.binary.EXPECT().
		Solve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), manifest.Channels).
		Return([]domain.Package{
			{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("ripgrep"), Version: "14.0.0"},
		}, nil)

	results, err := resolver.Resolve(t.Context(), manifest, domain.NewLockfile(), planner.Options{Parallelism: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	defaultPair := results[domain.PairKey{Environment: "default", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusResolved, defaultPair.Status)
	assert.False(t, defaultPair.UpToDate)
	assert.Len(t, defaultPair.Record.Packages, 2)
	assert.Equal(t, manifest.InputHash("default", "linux-64"), defaultPair.InputHash)

	toolsPair := results[domain.PairKey{Environment: "tools", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusResolved, toolsPair.Status)
}

func TestResolver_Resolve_UpToDateCarryForward(t *testing.T) {
	resolver, _ := newTestResolver(t)
	manifest := plannerManifest()
	manifest.EnvironmentOrder = []string{"default"}
	delete(manifest.Environments, "tools")

	lockfile := domain.NewLockfile()
	pair := domain.PairKey{Environment: "default", Platform: "linux-64"}
	record := domain.ResolvedRecord{Packages: binaryResult()}
	lockfile.Apply(pair, record, manifest.InputHash("default", "linux-64"))

	// No solver expectations: an up-to-date pair never reaches them.
	results, err := resolver.Resolve(t.Context(), manifest, lockfile, planner.Options{})
	require.NoError(t, err)

	res := results[pair]
	assert.Equal(t, domain.StatusResolved, res.Status)
	assert.True(t, res.UpToDate)
	assert.Len(t, res.Record.Packages, 1, "the locked record is carried forward unchanged")
}

func TestResolver_Resolve_FailureIsolation(t *testing.T) {
	resolver, m := newTestResolver(t)
	manifest := plannerManifest()

	m.metadata.EXPECT().
		Fetch(gomock.Any(), "main", domain.Platform("linux-64")).
		Return(&domain.PackageIndex{}, nil).
		AnyTimes()

	unsat := zerr.Wrap(domain.ErrUnsatisfiable, "nothing provides python >=4")
	m.binary.EXPECT().
		Solve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), gomock.Any()).
		DoAndReturn(func(_ context.Context, specs []domain.Spec, _ domain.Platform, _ []domain.Channel) ([]domain.Package, error) {
			if containsSpec(specs, "python") {
				return nil, unsat
			}
			return []domain.Package{
				{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("ripgrep"), Version: "14.0.0"},
			}, nil
		}).
		Times(2)

	results, err := resolver.Resolve(t.Context(), manifest, domain.NewLockfile(), planner.Options{Parallelism: 1})
	require.NoError(t, err, "a pair failure is not a run failure")

	failed := results[domain.PairKey{Environment: "default", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusFailed, failed.Status)
	require.Error(t, failed.Err)
	assert.Contains(t, failed.Err.Error(), domain.ErrUnsatisfiable.Error())

	ok := results[domain.PairKey{Environment: "tools", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusResolved, ok.Status)
	assert.NoError(t, ok.Err)
}

func TestResolver_Resolve_MetadataUnavailable(t *testing.T) {
	resolver, m := newTestResolver(t)
	manifest := plannerManifest()
	manifest.EnvironmentOrder = []string{"default"}
	delete(manifest.Environments, "tools")

	m.metadata.EXPECT().
		Fetch(gomock.Any(), "main", domain.Platform("linux-64")).
		Return(nil, zerr.New("connection refused"))

	results, err := resolver.Resolve(t.Context(), manifest, domain.NewLockfile(), planner.Options{})
	require.NoError(t, err)

	res := results[domain.PairKey{Environment: "default", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), domain.ErrMetadataUnavailable.Error())
}

func TestResolver_Resolve_MissingInterpreter(t *testing.T) {
	resolver, m := newTestResolver(t)
	manifest := plannerManifest()
	manifest.EnvironmentOrder = []string{"default"}
	delete(manifest.Environments, "tools")

	m.metadata.EXPECT().
		Fetch(gomock.Any(), "main", domain.Platform("linux-64")).
		Return(&domain.PackageIndex{}, nil)
	m.binary.EXPECT().
		Solve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), gomock.Any()).
		Return([]domain.Package{
			{Ecosystem: domain.EcosystemBinary, Name: domain.NewInternedString("openssl"), Version: "3.1.0"},
		}, nil)

	results, err := resolver.Resolve(t.Context(), manifest, domain.NewLockfile(), planner.Options{})
	require.NoError(t, err)

	res := results[domain.PairKey{Environment: "default", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "no interpreter")
}

func TestResolver_Resolve_ConflictsAreWarnings(t *testing.T) {
	resolver, m := newTestResolver(t)
	manifest := plannerManifest()
	manifest.EnvironmentOrder = []string{"default"}
	delete(manifest.Environments, "tools")

	m.metadata.EXPECT().
		Fetch(gomock.Any(), "main", domain.Platform("linux-64")).
		Return(&domain.PackageIndex{}, nil)
	m.binary.EXPECT().
		Solve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), gomock.Any()).
		Return(binaryResult(), nil)
	m.language.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), domain.Platform("linux-64"), gomock.Any()).
		Return([]domain.Package{
			{
				Ecosystem: domain.EcosystemLanguage,
				Name:      domain.NewInternedString("cryptography"),
				Version:   "41.0.0",
				Requires:  []string{"openssl"},
			},
		}, nil)

	m.logger.EXPECT().Warn(gomock.Any()).Times(1)

	results, err := resolver.Resolve(t.Context(), manifest, domain.NewLockfile(), planner.Options{})
	require.NoError(t, err)

	res := results[domain.PairKey{Environment: "default", Platform: "linux-64"}]
	assert.Equal(t, domain.StatusResolved, res.Status, "a cross-ecosystem conflict does not fail the pair")
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "openssl", res.Conflicts[0].Requirement)
}

func TestResolver_Status(t *testing.T) {
	resolver, _ := newTestResolver(t)
	pair := domain.PairKey{Environment: "default", Platform: "linux-64"}
	assert.Equal(t, domain.StatusUnresolved, resolver.Status(pair))
}

func containsSpec(specs []domain.Spec, name string) bool {
	for _, s := range specs {
		if s.Key().Name == name {
			return true
		}
	}
	return false
}
