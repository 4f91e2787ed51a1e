package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/adapters/index"
	"go.trai.ch/crosscheck/internal/adapters/lockstore"
	"go.trai.ch/crosscheck/internal/adapters/report"
	"go.trai.ch/crosscheck/internal/adapters/snapshot"
	"go.trai.ch/crosscheck/internal/adapters/telemetry"
	"go.trai.ch/crosscheck/internal/app"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/crosscheck/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const (
	rootLine  = `{"name":"root","vers":"1.0.0","deps":[{"name":"leaf","req":"^1.0","features":[],"optional":false,"kind":"normal"}]}`
	leafLines = `{"name":"leaf","vers":"1.0.0","deps":[]}` + "\n" + `{"name":"leaf","vers":"1.1.0","deps":[]}`
)

type harness struct {
	app      *app.App
	cfg      domain.Config
	logger   *mocks.MockLogger
	progress *mocks.MockProgress
}

// newHarness wires the application to real file adapters rooted in a temp dir.
func newHarness(t *testing.T, mode domain.Mode) harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()

	cfg := domain.DefaultConfig()
	cfg.Mode = mode
	cfg.Workers = 2
	cfg.IndexDir = filepath.Join(dir, "index")
	cfg.RegressionDir = filepath.Join(dir, "cases")
	cfg.ReportPath = filepath.Join(dir, "out.csv")
	cfg.LockStorePath = filepath.Join(dir, "locks.json")

	writeIndex(t, cfg.IndexDir, map[string]string{
		"ro/ot/root": rootLine,
		"le/af/leaf": leafLines,
	})

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any()).Return(cfg, nil).AnyTimes()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	progress := mocks.NewMockProgress(ctrl)

	a := app.New(
		loader,
		log,
		telemetry.NewNoOpTracer(),
		progress,
		func(dir string) ports.RecordSource { return index.NewSource(dir) },
		func(dir string) ports.SnapshotStore { return snapshot.NewStore(dir) },
		func(path string) (ports.ReportSink, error) { return report.Create(path) },
		func(path string) (ports.LockStore, error) { return lockstore.NewStore(path) },
	)
	return harness{app: a, cfg: cfg, logger: log, progress: progress}
}

func writeIndex(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content+"\n"), 0o600))
	}
}

func TestApp_Check(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)

	res, err := h.app.Check(context.Background(), app.CheckOptions{Root: "root@1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationAgree, res.Classification)
	require.NotNil(t, res.Solver)
	assert.Len(t, res.Solver.Lookup(domain.NewInternedString("leaf")), 1)
}

func TestApp_Check_Record(t *testing.T) {
	h := newHarness(t, domain.ModeAll)

	_, err := h.app.Check(context.Background(), app.CheckOptions{Root: "root@1.0.0", Record: true})
	require.NoError(t, err)

	store, err := lockstore.NewStore(h.cfg.LockStorePath)
	require.NoError(t, err)
	lock, err := store.Get(domain.NewRoot("root", domain.MustParseVersion("1.0.0")))
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.True(t, lock.Pins(domain.NewInternedString("leaf"), domain.MustParseVersion("1.1.0")))

	// The recorded lock is consulted by the next check and still holds.
	res, err := h.app.Check(context.Background(), app.CheckOptions{Root: "root@1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationAgree, res.Classification)
	assert.Positive(t, res.SolverLockTime)
}

func TestApp_Check_Errors(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)

	_, err := h.app.Check(context.Background(), app.CheckOptions{Root: "missing@1.0.0"})
	require.ErrorIs(t, err, domain.ErrReleaseNotFound)

	_, err = h.app.Check(context.Background(), app.CheckOptions{Root: "not-a-root"})
	require.ErrorIs(t, err, domain.ErrInvalidRoot)

	_, err = h.app.Check(context.Background(), app.CheckOptions{
		Root:      "root@1.0.0",
		Overrides: app.Overrides{Mode: "fastest"},
	})
	require.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestApp_Check_MalformedIndexLine(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)
	writeIndex(t, h.cfg.IndexDir, map[string]string{"br/ok/broken": `{"name":`})
	h.logger.EXPECT().Warn(gomock.Any()).MinTimes(1)

	res, err := h.app.Check(context.Background(), app.CheckOptions{Root: "root@1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassificationAgree, res.Classification)
}

func TestApp_Check_MissingIndex(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)

	_, err := h.app.Check(context.Background(), app.CheckOptions{
		Root:      "root@1.0.0",
		Overrides: app.Overrides{IndexDir: filepath.Join(t.TempDir(), "absent")},
	})
	require.ErrorIs(t, err, domain.ErrIndexReadFailed)
}

func TestApp_Bench(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)
	ctrl := gomock.NewController(t)
	unit := mocks.NewMockProgressUnit(ctrl)
	unit.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()
	unit.EXPECT().Done(nil).Times(3)
	h.progress.EXPECT().Unit(gomock.Any()).Return(unit).Times(3)
	h.progress.EXPECT().Close().Return(nil)

	summary, err := h.app.Bench(context.Background(), app.BenchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Units)
	assert.Equal(t, 3, summary.Agree)

	data, err := os.ReadFile(h.cfg.ReportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(report.Header, ","), lines[0])
}

func TestApp_Regress(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	store := snapshot.NewStore(h.cfg.RegressionDir)
	_, err := store.Save(domain.NewRoot("root", domain.MustParseVersion("1.0.0")), []domain.RawRelease{
		{Name: "root", Version: "1.0.0", Deps: []domain.RawDependency{{Name: "leaf", Req: "^1.0", DefaultFeatures: true}}},
		{Name: "leaf", Version: "1.0.0"},
	})
	require.NoError(t, err)

	// An unknown case is a change.
	results, err := h.app.Regress(context.Background(), app.RegressOptions{})
	require.ErrorIs(t, err, domain.ErrRegression)
	require.Len(t, results, 1)
	assert.False(t, results[0].Known)
	assert.Equal(t, domain.ClassificationAgree, results[0].Got)

	_, err = h.app.Regress(context.Background(), app.RegressOptions{Accept: true})
	require.NoError(t, err)

	m, err := store.Manifest()
	require.NoError(t, err)
	assert.Equal(t, domain.Manifest{"root@1.0.0.yaml": domain.ClassificationAgree}, m)

	results, err = h.app.Regress(context.Background(), app.RegressOptions{AllVersions: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Changed())
}

func TestApp_Regress_ChangedClassification(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	store := snapshot.NewStore(h.cfg.RegressionDir)
	_, err := store.Save(domain.NewRoot("root", domain.MustParseVersion("1.0.0")), []domain.RawRelease{
		{Name: "root", Version: "1.0.0"},
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveManifest(domain.Manifest{"root@1.0.0.yaml": domain.ClassificationDisagree}))

	results, err := h.app.Regress(context.Background(), app.RegressOptions{})
	require.ErrorIs(t, err, domain.ErrRegression)
	require.Len(t, results, 1)
	assert.Equal(t, domain.ClassificationDisagree, results[0].Accepted)
	assert.Equal(t, domain.ClassificationAgree, results[0].Got)
	assert.True(t, results[0].Changed())
}

func TestApp_Regress_AcceptSaveFails(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)
	ctrl := gomock.NewController(t)
	saveErr := errors.New("disk full")

	store := mocks.NewMockSnapshotStore(ctrl)
	store.EXPECT().Cases().Return([]string{"cases/root@1.0.0.yaml"}, nil)
	store.EXPECT().Manifest().Return(nil, nil)
	store.EXPECT().Load("cases/root@1.0.0.yaml").Return([]domain.RawRelease{{Name: "root", Version: "1.0.0"}}, nil)
	store.EXPECT().SaveManifest(domain.Manifest{"root@1.0.0.yaml": domain.ClassificationAgree}).Return(saveErr)

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any()).Return(h.cfg, nil)
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	a := app.New(
		loader,
		h.logger,
		telemetry.NewNoOpTracer(),
		h.progress,
		func(dir string) ports.RecordSource { return index.NewSource(dir) },
		func(string) ports.SnapshotStore { return store },
		func(path string) (ports.ReportSink, error) { return report.Create(path) },
		func(path string) (ports.LockStore, error) { return lockstore.NewStore(path) },
	)

	results, err := a.Regress(context.Background(), app.RegressOptions{Accept: true})
	require.ErrorIs(t, err, saveErr)
	require.Len(t, results, 1)
	assert.Equal(t, domain.ClassificationAgree, results[0].Got)
}

func TestApp_Minimize_NotReproducible(t *testing.T) {
	h := newHarness(t, domain.ModeCompare)

	store := snapshot.NewStore(h.cfg.RegressionDir)
	path, err := store.Save(domain.NewRoot("root", domain.MustParseVersion("1.0.0")), []domain.RawRelease{
		{Name: "root", Version: "1.0.0"},
	})
	require.NoError(t, err)

	_, err = h.app.Minimize(context.Background(), app.MinimizeOptions{Path: path})
	require.ErrorIs(t, err, domain.ErrNotReproducible)

	_, err = h.app.Minimize(context.Background(), app.MinimizeOptions{Path: path, Root: "other@1.0.0"})
	require.ErrorIs(t, err, domain.ErrReleaseNotFound)
}
