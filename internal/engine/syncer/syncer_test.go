package syncer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/syncer"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type driverMocks struct {
	states    *mocks.MockEnvStateStore
	installer *mocks.MockInstaller
	tracer    *mocks.MockTracer
	logger    *mocks.MockLogger
}

func newTestDriver(t *testing.T) (*syncer.Driver, *driverMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &driverMocks{
		states:    mocks.NewMockEnvStateStore(ctrl),
		installer: mocks.NewMockInstaller(ctrl),
		tracer:    mocks.NewMockTracer(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
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

	return syncer.NewDriver(m.states, m.installer, m.tracer, m.logger), m
}

func syncPair() domain.PairKey {
	return domain.PairKey{Environment: "default", Platform: "linux-64"}
}

func lockedRecord() domain.ResolvedRecord {
	shadowed := domain.Package{
		Ecosystem:  domain.EcosystemLanguage,
		Name:       domain.NewInternedString("numpy"),
		Version:    "1.26.2",
		Provenance: domain.ProvenanceShadowed,
	}
	return domain.ResolvedRecord{Packages: []domain.Package{
		{
			Ecosystem:  domain.EcosystemBinary,
			Name:       domain.NewInternedString("python"),
			Version:    "3.11.4",
			Provenance: domain.ProvenanceBinary,
		},
		shadowed,
		{
			Ecosystem:  domain.EcosystemLanguage,
			Name:       domain.NewInternedString("requests"),
			Version:    "2.31.0",
			Provenance: domain.ProvenanceLanguage,
		},
	}}
}

func lockfileWith(pair domain.PairKey, record domain.ResolvedRecord) *domain.Lockfile {
	lf := domain.NewLockfile()
	lf.Apply(pair, record, "hash")
	return lf
}

func TestDriver_Sync_NotLocked(t *testing.T) {
	driver, _ := newTestDriver(t)

	_, err := driver.Sync(t.Context(), domain.NewLockfile(), syncPair(), "prefix")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrPairNotLocked.Error())
}

func TestDriver_Sync_AlreadySynced(t *testing.T) {
	driver, m := newTestDriver(t)
	record := lockedRecord()

	// The installed state matches the materialized record; the installer
	// is never consulted.
	m.states.EXPECT().Read("prefix").Return(&domain.InstalledState{
		Packages: record.Materialized(),
	}, nil)

	result, err := driver.Sync(t.Context(), lockfileWith(syncPair(), record), syncPair(), "prefix")
	require.NoError(t, err)
	assert.True(t, result.AlreadySynced)
	assert.Empty(t, result.Operations)
}

func TestDriver_Sync_AppliesOperations(t *testing.T) {
	driver, m := newTestDriver(t)
	record := lockedRecord()

	stale := domain.Package{
		Ecosystem:  domain.EcosystemBinary,
		Name:       domain.NewInternedString("zlib"),
		Version:    "1.2",
		Provenance: domain.ProvenanceBinary,
	}

	gomock.InOrder(
		m.states.EXPECT().Read("prefix").Return(&domain.InstalledState{
			Packages: []domain.Package{stale},
		}, nil),
		m.installer.EXPECT().
			Apply(gomock.Any(), gomock.Any(), "prefix").
			DoAndReturn(func(_ context.Context, ops []domain.Operation, _ string) ([]domain.Operation, error) {
				// Removals first, installs after; the shadowed entry is
				// never part of the plan.
				require.Len(t, ops, 3)
				assert.Equal(t, domain.OpRemove, ops[0].Kind)
				assert.Equal(t, "zlib", ops[0].Package.Name.String())
				assert.Equal(t, domain.OpInstall, ops[1].Kind)
				assert.Equal(t, domain.OpInstall, ops[2].Kind)
				for _, op := range ops {
					assert.NotEqual(t, "numpy", op.Package.Name.String())
				}
				return ops, nil
			}),
		m.states.EXPECT().Read("prefix").Return(&domain.InstalledState{
			Packages: record.Materialized(),
		}, nil),
	)

	result, err := driver.Sync(t.Context(), lockfileWith(syncPair(), record), syncPair(), "prefix")
	require.NoError(t, err)
	assert.False(t, result.AlreadySynced)
	assert.Len(t, result.Operations, 3)
}

func TestDriver_Sync_InstallerFailure(t *testing.T) {
	driver, m := newTestDriver(t)
	record := lockedRecord()

	m.states.EXPECT().Read("prefix").Return(&domain.InstalledState{}, nil)
	m.installer.EXPECT().
		Apply(gomock.Any(), gomock.Any(), "prefix").
		Return(nil, zerr.Wrap(domain.ErrPartialInstall, "download failed"))

	_, err := driver.Sync(t.Context(), lockfileWith(syncPair(), record), syncPair(), "prefix")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installer failed")
}

func TestDriver_Sync_VerifyMismatch(t *testing.T) {
	driver, m := newTestDriver(t)
	record := lockedRecord()

	gomock.InOrder(
		m.states.EXPECT().Read("prefix").Return(&domain.InstalledState{}, nil),
		m.installer.EXPECT().
			Apply(gomock.Any(), gomock.Any(), "prefix").
			DoAndReturn(func(_ context.Context, ops []domain.Operation, _ string) ([]domain.Operation, error) {
				return ops, nil
			}),
		// The re-read still misses a package: the sync is reported as a
		// mismatch, never silently retried.
		m.states.EXPECT().Read("prefix").Return(&domain.InstalledState{
			Packages: record.Materialized()[:1],
		}, nil),
	)

	_, err := driver.Sync(t.Context(), lockfileWith(syncPair(), record), syncPair(), "prefix")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrSynchronizationMismatch.Error())
	assert.Contains(t, err.Error(), "requests")
}

func TestDriver_Sync_StateReadFailure(t *testing.T) {
	driver, m := newTestDriver(t)

	m.states.EXPECT().Read("prefix").Return(nil, zerr.New("permission denied"))

	_, err := driver.Sync(t.Context(), lockfileWith(syncPair(), lockedRecord()), syncPair(), "prefix")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read installed state")
}
