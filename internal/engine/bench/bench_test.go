package bench_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports/mocks"
	"go.trai.ch/crosscheck/internal/engine/bench"
	"go.trai.ch/crosscheck/internal/engine/checker"
	"go.uber.org/mock/gomock"
)

type fakeChecker struct {
	check func(ctx context.Context, reg *domain.Registry, root domain.Root) domain.Comparison
}

func (f fakeChecker) Check(ctx context.Context, reg *domain.Registry, root domain.Root) checker.Result {
	c := f.check(ctx, reg, root)
	c.Package, c.Version = root.Package, root.Version
	return checker.Result{Comparison: c}
}

func (f fakeChecker) Disagrees(ctx context.Context, reg *domain.Registry, root domain.Root) bool {
	return f.Check(ctx, reg, root).Classification == domain.ClassificationDisagree
}

func registry(t *testing.T) *domain.Registry {
	t.Helper()
	reg, report := domain.BuildRegistry(slices.Values([]domain.RawRelease{
		{Name: "root", Version: "1.0.0", Deps: []domain.RawDependency{{Name: "leaf", Req: "^1.0"}}},
		{Name: "leaf", Version: "1.0.0"},
		{Name: "leaf", Version: "1.1.0"},
		{Name: "other", Version: "9.9.9"},
	}), domain.Filter{})
	require.Empty(t, report.Errors)
	return reg
}

type driverMocks struct {
	sink      *mocks.MockReportSink
	snapshots *mocks.MockSnapshotStore
	progress  *mocks.MockProgress
	unit      *mocks.MockProgressUnit
	logger    *mocks.MockLogger
}

func setupDriverTest(t *testing.T, c bench.Checker) (*bench.Driver, driverMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := driverMocks{
		sink:      mocks.NewMockReportSink(ctrl),
		snapshots: mocks.NewMockSnapshotStore(ctrl),
		progress:  mocks.NewMockProgress(ctrl),
		unit:      mocks.NewMockProgressUnit(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
	}
	m.progress.EXPECT().Unit(gomock.Any()).Return(m.unit).AnyTimes()
	m.unit.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()
	return bench.NewDriver(c, m.sink, m.snapshots, m.progress, m.logger), m
}

func agreeing(_ context.Context, _ *domain.Registry, _ domain.Root) domain.Comparison {
	return domain.Comparison{
		SolverOutcome:     domain.OutcomeSolved,
		ReferenceOutcome:  domain.OutcomeSolved,
		SolverTime:        0.5,
		ReferenceTime:     0.25,
		SolverLockTime:    0.125,
		ReferenceLockTime: 0.0625,
		Classification:    domain.ClassificationAgree,
	}
}

func TestRun_Totals(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d, m := setupDriverTest(t, fakeChecker{check: agreeing})
		m.unit.EXPECT().Done(nil).Times(4)

		var mu sync.Mutex
		var written []string
		m.sink.EXPECT().Write(gomock.Any()).DoAndReturn(func(c domain.Comparison) error {
			mu.Lock()
			defer mu.Unlock()
			written = append(written, c.Root().String())
			return nil
		}).Times(4)

		summary, err := d.Run(context.Background(), registry(t), bench.Options{Workers: 2})
		require.NoError(t, err)

		assert.Equal(t, 4, summary.Units)
		assert.Equal(t, 4, summary.Agree)
		assert.InDelta(t, 2.0, summary.SolverCPU, 1e-9)
		assert.InDelta(t, 1.0, summary.ReferenceCPU, 1e-9)
		assert.InDelta(t, 0.5, summary.SolverLockCPU, 1e-9)
		assert.InDelta(t, 0.25, summary.ReferenceLockCPU, 1e-9)
		assert.ElementsMatch(t, []string{"leaf@1.0.0", "leaf@1.1.0", "other@9.9.9", "root@1.0.0"}, written)
	})
}

func TestRun_Filter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d, m := setupDriverTest(t, fakeChecker{check: agreeing})
		m.unit.EXPECT().Done(nil).Times(2)
		m.sink.EXPECT().Write(gomock.Any()).Return(nil).Times(2)

		summary, err := d.Run(context.Background(), registry(t), bench.Options{Workers: 1, Filter: "lea"})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Units)
	})
}

func TestRun_DisagreementIsPersisted(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rootRel := domain.NewRoot("root", domain.MustParseVersion("1.0.0"))
		// Disagrees on root as long as leaf 1.1.0 is present.
		c := fakeChecker{check: func(ctx context.Context, reg *domain.Registry, root domain.Root) domain.Comparison {
			if root == rootRel && reg.Contains(domain.NewRoot("leaf", domain.MustParseVersion("1.1.0"))) {
				return domain.Comparison{
					SolverOutcome:    domain.OutcomeSolved,
					ReferenceOutcome: domain.OutcomeNoSolution,
					Classification:   domain.ClassificationDisagree,
					Reason:           domain.ErrDisagreement,
				}
			}
			return agreeing(ctx, reg, root)
		}}
		d, m := setupDriverTest(t, c)
		m.unit.EXPECT().Done(nil).Times(3)
		m.unit.EXPECT().Done(gomock.Not(gomock.Nil())).Times(1)
		m.sink.EXPECT().Write(gomock.Any()).Return(nil).Times(4)
		m.logger.EXPECT().Info(gomock.Any())
		m.snapshots.EXPECT().Save(rootRel, gomock.Any()).DoAndReturn(
			func(_ domain.Root, records []domain.RawRelease) (string, error) {
				names := make([]string, len(records))
				for i, r := range records {
					names[i] = r.Name + "@" + r.Version
				}
				assert.Equal(t, []string{"leaf@1.1.0", "root@1.0.0"}, names)
				return "testdata/cases/root@1.0.0.yaml", nil
			})

		summary, err := d.Run(context.Background(), registry(t), bench.Options{Workers: 4, Minimize: true})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDisagreement))
		assert.Equal(t, 1, summary.Disagree)
		assert.Equal(t, 3, summary.Agree)
	})
}

func TestRun_UnitTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := fakeChecker{check: func(ctx context.Context, _ *domain.Registry, _ domain.Root) domain.Comparison {
			<-ctx.Done()
			return domain.Comparison{
				SolverOutcome:  domain.OutcomeTimeout,
				Classification: domain.ClassificationTimeout,
			}
		}}
		d, m := setupDriverTest(t, c)
		m.unit.EXPECT().Skipped().Times(4)
		m.sink.EXPECT().Write(gomock.Any()).Return(nil).Times(4)

		summary, err := d.Run(context.Background(), registry(t), bench.Options{Workers: 4, Timeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, 4, summary.Timeouts)
		assert.Equal(t, time.Second, summary.Wall)
	})
}

func TestRun_SinkFailureIsFatal(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d, m := setupDriverTest(t, fakeChecker{check: agreeing})
		m.unit.EXPECT().Done(nil).AnyTimes()
		m.sink.EXPECT().Write(gomock.Any()).Return(domain.ErrReportWriteFailed)

		_, err := d.Run(context.Background(), registry(t), bench.Options{Workers: 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrReportWriteFailed))
	})
}

func TestRun_SaveFailureIsFatal(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := fakeChecker{check: func(context.Context, *domain.Registry, domain.Root) domain.Comparison {
			return domain.Comparison{Classification: domain.ClassificationDisagree}
		}}
		d, m := setupDriverTest(t, c)
		m.unit.EXPECT().Done(gomock.Any()).AnyTimes()
		m.sink.EXPECT().Write(gomock.Any()).Return(nil).AnyTimes()
		m.snapshots.EXPECT().Save(gomock.Any(), gomock.Any()).Return("", domain.ErrSnapshotWriteFailed)

		_, err := d.Run(context.Background(), registry(t), bench.Options{Workers: 1})
		assert.True(t, errors.Is(err, domain.ErrSnapshotWriteFailed))
	})
}
