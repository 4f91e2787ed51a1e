// Package app implements the application layer for crosscheck.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/crosscheck/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/crosscheck/internal/engine/checker"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
	progress     ports.Progress
	sources      ports.RecordSourceFactory
	snapshots    ports.SnapshotStoreFactory
	reports      ports.ReportSinkFactory
	locks        ports.LockStoreFactory
	locator      domain.Locator
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	tracer ports.Tracer,
	progress ports.Progress,
	sources ports.RecordSourceFactory,
	snapshots ports.SnapshotStoreFactory,
	reports ports.ReportSinkFactory,
	locks ports.LockStoreFactory,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
		progress:     progress,
		sources:      sources,
		snapshots:    snapshots,
		reports:      reports,
		locks:        locks,
		locator:      domain.DefaultLocator(),
	}
}

// Overrides holds configuration values given on the command line. Zero values
// keep what the configuration file says.
type Overrides struct {
	// ConfigPath is the configuration file. Empty means domain.DefaultConfigFile.
	ConfigPath    string
	Mode          string
	Workers       int
	Filter        string
	Timeout       time.Duration
	IndexDir      string
	RegressionDir string
	ReportPath    string
	LockStorePath string
	IncludeYanked bool
	IncludeAll    bool
}

func (a *App) loadConfig(o Overrides) (domain.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = domain.DefaultConfigFile
	}
	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to load configuration")
	}

	if o.Mode != "" {
		mode, err := domain.ParseMode(o.Mode)
		if err != nil {
			return domain.Config{}, err
		}
		cfg.Mode = mode
	}
	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	setIfNotEmpty(&cfg.Filter, o.Filter)
	setIfNotEmpty(&cfg.IndexDir, o.IndexDir)
	setIfNotEmpty(&cfg.RegressionDir, o.RegressionDir)
	setIfNotEmpty(&cfg.ReportPath, o.ReportPath)
	setIfNotEmpty(&cfg.LockStorePath, o.LockStorePath)
	cfg.IncludeYanked = cfg.IncludeYanked || o.IncludeYanked
	cfg.Ecosystem.IncludeAll = cfg.Ecosystem.IncludeAll || o.IncludeAll
	return cfg, nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// loadRegistry reads the configured index into a snapshot. Malformed records
// are logged and skipped; an unreadable index is fatal.
func (a *App) loadRegistry(ctx context.Context, cfg domain.Config) (*domain.Registry, error) {
	src := a.sources(cfg.IndexDir)

	var fatal error
	malformed := 0
	records := func(yield func(domain.RawRelease) bool) {
		for raw, err := range src.Records(ctx) {
			if err != nil {
				if errors.Is(err, domain.ErrIndexRecordInvalid) {
					a.logger.Warn(err.Error())
					malformed++
					continue
				}
				fatal = err
				return
			}
			if !yield(raw) {
				return
			}
		}
	}

	reg, report := domain.BuildRegistry(records, config.Filter(cfg))
	if fatal != nil {
		return nil, zerr.Wrap(fatal, "failed to read registry index")
	}
	a.logBuild(report, malformed)
	return reg, nil
}

// registryFrom builds a snapshot from records loaded from a case file.
// No ecosystem filter applies: a case holds exactly what was saved.
func (a *App) registryFrom(records []domain.RawRelease) *domain.Registry {
	reg, report := domain.BuildRegistry(func(yield func(domain.RawRelease) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}, domain.Filter{})
	a.logBuild(report, 0)
	return reg
}

func (a *App) logBuild(report domain.BuildReport, malformed int) {
	for _, err := range report.Errors {
		a.logger.Warn(err.Error())
	}
	a.logger.Info(fmt.Sprintf("loaded %d releases (%d filtered, %d overwritten, %d rejected)",
		report.Accepted, report.Filtered, report.Overwritten, len(report.Errors)+malformed))
}

// newChecker creates the checker for cfg. Recorded locks are consulted only
// in the mode that cross-checks locks.
func (a *App) newChecker(cfg domain.Config) (*checker.Checker, error) {
	var locks ports.LockStore
	if cfg.Mode.ChecksLocks() {
		store, err := a.locks(cfg.LockStorePath)
		if err != nil {
			return nil, err
		}
		locks = store
	}
	return checker.New(cfg.Mode, a.locator, locks, a.tracer, a.logger), nil
}

// withTimeout bounds ctx by the configured per-unit timeout, if any.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func rawRecords(releases []*domain.Release) []domain.RawRelease {
	raw := make([]domain.RawRelease, len(releases))
	for i, rel := range releases {
		raw[i] = rel.Raw()
	}
	return raw
}
