package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/crosscheck/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/engine/bench"
	"go.trai.ch/zerr"
)

// BenchOptions configures the Bench method.
type BenchOptions struct {
	Overrides
	// Minimize shrinks every disagreement before it is saved.
	Minimize bool
	// Trace logs every engine span as it ends.
	Trace bool
}

// Bench checks every root of the configured index and writes the report.
// Disagreements are saved as regression cases and reported as
// domain.ErrDisagreement after the run completes.
func (a *App) Bench(ctx context.Context, opts BenchOptions) (bench.Summary, error) {
	cfg, err := a.loadConfig(opts.Overrides)
	if err != nil {
		return bench.Summary{}, err
	}

	if opts.Trace {
		shutdown := telemetry.Setup(a.logger)
		defer func() {
			_ = shutdown(context.WithoutCancel(ctx))
		}()
	}

	reg, err := a.loadRegistry(ctx, cfg)
	if err != nil {
		return bench.Summary{}, err
	}

	chk, err := a.newChecker(cfg)
	if err != nil {
		return bench.Summary{}, err
	}

	sink, err := a.reports(cfg.ReportPath)
	if err != nil {
		return bench.Summary{}, zerr.Wrap(err, "failed to create report")
	}

	driver := bench.NewDriver(chk, sink, a.snapshots(cfg.RegressionDir), a.progress, a.logger)
	summary, runErr := driver.Run(ctx, reg, bench.Options{
		Workers:  cfg.Workers,
		Filter:   cfg.Filter,
		Timeout:  cfg.Timeout,
		Minimize: opts.Minimize,
	})

	a.logger.Info(fmt.Sprintf(
		"checked %d roots in %s: %d agree, %d disagree, %d skipped, %d timed out",
		summary.Units, summary.Wall, summary.Agree, summary.Disagree, summary.Skipped, summary.Timeouts,
	))
	a.logger.Info(fmt.Sprintf(
		"cpu seconds: solver %.3f, reference %.3f, solver lock %.3f, reference lock %.3f",
		summary.SolverCPU, summary.ReferenceCPU, summary.SolverLockCPU, summary.ReferenceLockCPU,
	))

	return summary, errors.Join(runErr, sink.Close(), a.progress.Close())
}
