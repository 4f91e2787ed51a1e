package app

import (
	"context"
	"fmt"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/engine/checker"
	"go.trai.ch/zerr"
)

// CheckOptions configures the Check method.
type CheckOptions struct {
	Overrides
	// Root is the release to check, as <package>@<version>.
	Root string
	// Record stores the agreed solution in the lock store.
	Record bool
}

// Check classifies a single root of the configured index. A disagreement is
// returned as domain.ErrDisagreement alongside the result.
func (a *App) Check(ctx context.Context, opts CheckOptions) (checker.Result, error) {
	cfg, err := a.loadConfig(opts.Overrides)
	if err != nil {
		return checker.Result{}, err
	}
	root, err := domain.ParseRoot(opts.Root)
	if err != nil {
		return checker.Result{}, err
	}

	reg, err := a.loadRegistry(ctx, cfg)
	if err != nil {
		return checker.Result{}, err
	}
	if !reg.Contains(root) {
		return checker.Result{}, zerr.With(zerr.Wrap(domain.ErrReleaseNotFound, "root is not in the index"), "root", root.String())
	}

	chk, err := a.newChecker(cfg)
	if err != nil {
		return checker.Result{}, err
	}

	uctx, cancel := withTimeout(ctx, cfg.Timeout)
	res := chk.Check(uctx, reg, root)
	cancel()

	a.logger.Info(fmt.Sprintf("%s: solver %s in %.3fs, reference %s in %.3fs: %s",
		root, res.SolverOutcome, res.SolverTime, res.ReferenceOutcome, res.ReferenceTime, res.Classification))

	if res.Classification == domain.ClassificationDisagree {
		err := zerr.Wrap(domain.ErrDisagreement, "engines disagree")
		if res.Reason != nil {
			err = zerr.With(err, "reason", res.Reason.Error())
		}
		return res, zerr.With(err, "root", root.String())
	}

	if opts.Record {
		if err := a.record(cfg, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// record stores the solution both engines agreed on.
func (a *App) record(cfg domain.Config, res checker.Result) error {
	if res.Classification != domain.ClassificationAgree || res.Solver == nil {
		a.logger.Warn(fmt.Sprintf("not recording %s: no agreed solution", res.Root()))
		return nil
	}
	store, err := a.locks(cfg.LockStorePath)
	if err != nil {
		return err
	}
	if err := store.Put(res.Solver.Lockfile()); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("recorded lock for %s in %s", res.Root(), cfg.LockStorePath))
	return nil
}
