package app

import (
	"context"
	"fmt"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/engine/bench"
	"go.trai.ch/crosscheck/internal/engine/checker"
	"go.trai.ch/crosscheck/internal/engine/minimizer"
	"go.trai.ch/zerr"
)

// MinimizeOptions configures the Minimize method.
type MinimizeOptions struct {
	Overrides
	// Path is the snapshot file to shrink.
	Path string
	// Root is the release the disagreement is observed for. Empty means the
	// root named by the file, <package>@<version>.yaml.
	Root string
}

// MinimizeResult describes a finished minimization.
type MinimizeResult struct {
	Root   domain.Root
	Before int
	After  int
	Stats  minimizer.Stats
	// Path is where the minimized case was saved.
	Path string
}

// Minimize shrinks the snapshot at opts.Path to a smaller one that still
// disagrees for its root and saves it to the regression directory.
func (a *App) Minimize(ctx context.Context, opts MinimizeOptions) (MinimizeResult, error) {
	cfg, err := a.loadConfig(opts.Overrides)
	if err != nil {
		return MinimizeResult{}, err
	}

	root, err := minimizeRoot(opts)
	if err != nil {
		return MinimizeResult{}, err
	}

	store := a.snapshots(cfg.RegressionDir)
	records, err := store.Load(opts.Path)
	if err != nil {
		return MinimizeResult{}, err
	}
	reg := a.registryFrom(records)
	if !reg.Contains(root) {
		return MinimizeResult{}, zerr.With(zerr.Wrap(domain.ErrReleaseNotFound, "snapshot does not contain the root"), "root", root.String())
	}

	chk := checker.New(cfg.Mode, a.locator, nil, a.tracer, a.logger)
	releases := reg.Flatten()
	minimized, stats, err := minimizer.Minimize(ctx, releases, root, bench.BoundedOracle(chk, cfg.Timeout))
	if err != nil {
		return MinimizeResult{}, zerr.With(err, "path", opts.Path)
	}

	path, err := store.Save(root, rawRecords(minimized))
	if err != nil {
		return MinimizeResult{}, err
	}
	a.logger.Info(fmt.Sprintf("minimized %s: %d -> %d releases in %d attempts over %d passes",
		root, len(releases), len(minimized), stats.Attempts, stats.Passes))

	return MinimizeResult{
		Root:   root,
		Before: len(releases),
		After:  len(minimized),
		Stats:  stats,
		Path:   path,
	}, nil
}

func minimizeRoot(opts MinimizeOptions) (domain.Root, error) {
	if opts.Root != "" {
		return domain.ParseRoot(opts.Root)
	}
	root, err := caseRoot(opts.Path)
	if err != nil {
		return domain.Root{}, zerr.With(zerr.Wrap(err, "cannot derive the root from the file name; pass it explicitly"), "path", opts.Path)
	}
	return root, nil
}
