package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/crosscheck/internal/engine/bench"
	"go.trai.ch/crosscheck/internal/engine/checker"
	"go.trai.ch/crosscheck/internal/engine/minimizer"
	"go.trai.ch/zerr"
)

// RegressOptions configures the Regress method.
type RegressOptions struct {
	Overrides
	// AllVersions checks every release of a case file, not only its root.
	AllVersions bool
	// Minimize shrinks cases that still disagree and rewrites them.
	Minimize bool
	// Accept records the current classifications as the expected ones.
	Accept bool
}

// CaseResult is the outcome of re-checking one regression case.
type CaseResult struct {
	// Name is the case file name, the key of the manifest.
	Name     string
	Accepted domain.Classification
	Got      domain.Classification
	// Known is false for cases absent from the manifest.
	Known bool
}

// Changed reports whether the case no longer matches its accepted classification.
func (c CaseResult) Changed() bool {
	return !c.Known || c.Accepted != c.Got
}

// Regress re-checks every case of the regression directory and compares the
// classifications against the manifest. Any change is domain.ErrRegression
// unless opts.Accept is set, in which case the manifest is rewritten.
func (a *App) Regress(ctx context.Context, opts RegressOptions) ([]CaseResult, error) {
	cfg, err := a.loadConfig(opts.Overrides)
	if err != nil {
		return nil, err
	}

	store := a.snapshots(cfg.RegressionDir)
	cases, err := store.Cases()
	if err != nil {
		return nil, err
	}
	manifest, err := store.Manifest()
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		manifest = domain.Manifest{}
	}

	// Cases are self-contained, so recorded locks of the live index do not apply.
	chk := checker.New(cfg.Mode, a.locator, nil, a.tracer, a.logger)

	results := make([]CaseResult, 0, len(cases))
	changed := 0
	for _, path := range cases {
		if err := ctx.Err(); err != nil {
			return results, zerr.Wrap(err, "regression run interrupted")
		}

		got, err := a.regressCase(ctx, chk, store, path, cfg, opts)
		if err != nil {
			return results, err
		}

		name := filepath.Base(path)
		accepted, known := manifest[name]
		res := CaseResult{Name: name, Accepted: accepted, Got: got, Known: known}
		results = append(results, res)

		if res.Changed() {
			changed++
			a.logger.Warn(fmt.Sprintf("%s: expected %s, got %s", name, describe(res), got))
		}
		manifest[name] = got
	}

	if opts.Accept {
		if err := store.SaveManifest(manifest); err != nil {
			return results, err
		}
		a.logger.Info(fmt.Sprintf("accepted %d cases", len(results)))
		return results, nil
	}
	if changed > 0 {
		return results, zerr.With(zerr.Wrap(domain.ErrRegression, "classifications changed"), "count", changed)
	}
	return results, nil
}

func describe(c CaseResult) string {
	if !c.Known {
		return "an accepted classification"
	}
	return string(c.Accepted)
}

// regressCase classifies one case file. With several roots the most severe
// classification wins.
func (a *App) regressCase(
	ctx context.Context,
	chk *checker.Checker,
	store ports.SnapshotStore,
	path string,
	cfg domain.Config,
	opts RegressOptions,
) (domain.Classification, error) {
	records, err := store.Load(path)
	if err != nil {
		return "", err
	}
	reg := a.registryFrom(records)

	root, rootErr := caseRoot(path)
	var roots []domain.Root
	switch {
	case opts.AllVersions || rootErr != nil:
		roots = reg.Roots("")
	case reg.Contains(root):
		roots = []domain.Root{root}
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrReleaseNotFound, "case does not contain its root"), "path", path)
	}

	worst := domain.ClassificationAgree
	for _, r := range roots {
		uctx, cancel := withTimeout(ctx, cfg.Timeout)
		res := chk.Check(uctx, reg, r)
		cancel()

		if res.Reason != nil && res.Classification == domain.ClassificationDisagree {
			a.logger.Warn(fmt.Sprintf("%s: %s", r, res.Reason))
		}
		if severity(res.Classification) > severity(worst) {
			worst = res.Classification
		}

		if opts.Minimize && res.Classification == domain.ClassificationDisagree {
			if err := a.shrinkCase(ctx, chk, store, reg, r, cfg); err != nil {
				return "", err
			}
		}
	}
	return worst, nil
}

// shrinkCase minimizes the closure of root and saves it as the case for root.
func (a *App) shrinkCase(
	ctx context.Context,
	chk *checker.Checker,
	store ports.SnapshotStore,
	reg *domain.Registry,
	root domain.Root,
	cfg domain.Config,
) error {
	releases := minimizer.Reachable(reg, root)
	minimized, stats, err := minimizer.Minimize(ctx, releases, root, bench.BoundedOracle(chk, cfg.Timeout))
	if err != nil {
		if errors.Is(err, domain.ErrNotReproducible) {
			a.logger.Warn(fmt.Sprintf("%s does not disagree on its dependency closure; left as is", root))
			return nil
		}
		return err
	}
	if len(minimized) == reg.Len() {
		return nil
	}
	path, err := store.Save(root, rawRecords(minimized))
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("minimized %s: %d -> %d releases (%d attempts), saved to %s",
		root, reg.Len(), len(minimized), stats.Attempts, path))
	return nil
}

// caseRoot derives the root from a case file named <package>@<version>.yaml.
func caseRoot(path string) (domain.Root, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return domain.ParseRoot(name)
}

func severity(c domain.Classification) int {
	switch c {
	case domain.ClassificationDisagree:
		return 3
	case domain.ClassificationTimeout:
		return 2
	case domain.ClassificationSkipped:
		return 1
	default:
		return 0
	}
}
