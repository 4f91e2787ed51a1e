// Package checker runs both resolution engines for a root and classifies
// whether they agree.
package checker

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.trai.ch/crosscheck/internal/adapters/bridge"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/crosscheck/internal/engine/reference"
	"go.trai.ch/crosscheck/internal/engine/solver"
	"go.trai.ch/zerr"
)

// Result is the classified comparison of one root plus the resolutions behind it.
type Result struct {
	domain.Comparison
	// Solver and Reference are set when the engine solved.
	Solver    *domain.Resolution
	Reference *domain.Resolution
}

// Checker is the differential checker. It is safe for concurrent use: every
// Check builds fresh adapters and engine state over the shared registry.
type Checker struct {
	mode   domain.Mode
	loc    domain.Locator
	locks  ports.LockStore
	tracer ports.Tracer
	logger ports.Logger
}

// New creates a checker. locks may be nil, in which case lock checks cross the
// engines' own solutions.
func New(mode domain.Mode, loc domain.Locator, locks ports.LockStore, tracer ports.Tracer, logger ports.Logger) *Checker {
	return &Checker{
		mode:   mode,
		loc:    loc,
		locks:  locks,
		tracer: tracer,
		logger: logger,
	}
}

// run is the outcome of one engine invocation.
type run struct {
	outcome    domain.Outcome
	resolution *domain.Resolution
	err        error
	elapsed    float64
	cycle      bool
}

func (r run) ran() bool { return r.outcome != domain.OutcomeSkipped }

// Check resolves root with the engines the mode enables and classifies the outcome.
func (c *Checker) Check(ctx context.Context, reg *domain.Registry, root domain.Root) Result {
	ctx, span := c.tracer.Start(ctx, "check "+root.String())
	defer span.End()

	res := Result{Comparison: domain.Comparison{
		Package:          root.Package,
		Version:          root.Version,
		SolverOutcome:    domain.OutcomeSkipped,
		ReferenceOutcome: domain.OutcomeSkipped,
	}}

	a := run{outcome: domain.OutcomeSkipped}
	if c.mode.RunsSolver() {
		a = c.runSolver(ctx, reg, root, nil)
	}

	b := run{outcome: domain.OutcomeSkipped}
	refReg := bridge.NewReferenceRegistry(reg, c.loc)
	if c.mode.RunsReference() {
		if refReg.Contains(root) {
			b = c.runReference(ctx, reg, refReg, root, nil)
		} else {
			c.logger.Info("skipping reference resolution: " + root.String() + " is not in its registry view")
		}
	}

	res.SolverOutcome, res.SolverTime, res.Solver = a.outcome, a.elapsed, a.resolution
	res.ReferenceOutcome, res.ReferenceTime, res.Reference = b.outcome, b.elapsed, b.resolution
	res.Classification, res.Reason = c.classify(a, b)

	if res.Classification == domain.ClassificationAgree && c.mode.ChecksLocks() &&
		a.outcome == domain.OutcomeSolved && b.outcome == domain.OutcomeSolved {
		c.checkLocks(ctx, reg, refReg, &res)
	}

	span.SetAttribute("classification", string(res.Classification))
	if res.Reason != nil {
		span.RecordError(res.Reason)
	}
	return res
}

// Disagrees reports whether root is classified as a disagreement against reg.
func (c *Checker) Disagrees(ctx context.Context, reg *domain.Registry, root domain.Root) bool {
	return c.Check(ctx, reg, root).Classification == domain.ClassificationDisagree
}

func (c *Checker) classify(a, b run) (domain.Classification, error) {
	if a.outcome == domain.OutcomeTimeout || b.outcome == domain.OutcomeTimeout {
		return domain.ClassificationTimeout, nil
	}

	// A single solved result is still checked for consistency.
	if !a.ran() || !b.ran() {
		for _, r := range []run{a, b} {
			if r.outcome == domain.OutcomeSolved {
				if err := Verify(*r.resolution); err != nil {
					return domain.ClassificationDisagree, err
				}
			}
			if r.outcome == domain.OutcomeError && !r.cycle {
				return domain.ClassificationDisagree, r.err
			}
		}
		return domain.ClassificationSkipped, nil
	}

	// A solver failure stands on its own; a reference cycle says nothing about it.
	if a.outcome == domain.OutcomeError {
		return domain.ClassificationDisagree, a.err
	}
	// The reference resolver rejects cycles the solver accepts.
	if b.cycle {
		return domain.ClassificationSkipped, nil
	}

	switch {
	case b.outcome == domain.OutcomeError:
		return domain.ClassificationDisagree, b.err
	case a.outcome == domain.OutcomeSolved && b.outcome == domain.OutcomeSolved:
		if err := Verify(*a.resolution); err != nil {
			return domain.ClassificationDisagree, zerr.With(err, "engine", "solver")
		}
		if err := Verify(*b.resolution); err != nil {
			return domain.ClassificationDisagree, zerr.With(err, "engine", "reference")
		}
		return domain.ClassificationAgree, nil
	case a.outcome == b.outcome:
		return domain.ClassificationAgree, nil
	default:
		err := zerr.With(zerr.With(zerr.Wrap(domain.ErrDisagreement, "engines reached different conclusions"),
			"solver", string(a.outcome)), "reference", string(b.outcome))
		return domain.ClassificationDisagree, err
	}
}

// checkLocks re-resolves each engine pinned to a lock: the recorded one when the
// store has it, otherwise the other engine's solution.
func (c *Checker) checkLocks(ctx context.Context, reg *domain.Registry, refReg *bridge.ReferenceRegistry, res *Result) {
	solverLock, referenceLock := res.Reference.Lockfile(), res.Solver.Lockfile()
	if c.locks != nil {
		recorded, err := c.locks.Get(res.Root())
		if err != nil {
			c.logger.Error(err)
		} else if recorded != nil {
			solverLock, referenceLock = *recorded, *recorded
		}
	}

	a := c.runSolver(ctx, reg, res.Root(), &solverLock)
	res.SolverLockTime = a.elapsed
	b := c.runReference(ctx, reg, refReg, res.Root(), &referenceLock)
	res.ReferenceLockTime = b.elapsed

	for _, check := range []struct {
		engine string
		r      run
	}{{"solver", a}, {"reference", b}} {
		if check.r.outcome == domain.OutcomeTimeout {
			res.Classification, res.Reason = domain.ClassificationTimeout, nil
			return
		}
		if check.r.outcome == domain.OutcomeSolved {
			continue
		}
		err := check.r.err
		if err == nil {
			err = zerr.Wrap(domain.ErrDisagreement, "pinned resolution did not solve")
		}
		err = zerr.With(zerr.With(zerr.Wrap(err, "lock check failed"), "engine", check.engine), "root", res.Root().String())
		c.logger.Error(err)
		res.Classification, res.Reason = domain.ClassificationDisagree, err
		return
	}
}

func (c *Checker) runSolver(ctx context.Context, reg *domain.Registry, root domain.Root, lock *domain.Lockfile) run {
	ctx, span := c.tracer.Start(ctx, spanName("solver", lock))
	defer span.End()

	var src solver.Source = bridge.NewSolverSource(reg, c.loc)
	if lock != nil {
		src = bridge.Pin(*lock).Solver(src)
	}

	start := time.Now()
	sol, err := solver.Solve(ctx, src, bridge.SolverRequest(root))
	r := run{elapsed: time.Since(start).Seconds()}

	switch {
	case err == nil:
		resolution, cerr := bridge.FromSolver(reg, root, sol)
		if cerr != nil {
			r.outcome, r.err = domain.OutcomeError, cerr
			break
		}
		r.outcome, r.resolution = domain.OutcomeSolved, &resolution
	case errors.Is(err, solver.ErrNoSolution):
		r.outcome, r.err = domain.OutcomeNoSolution, err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		r.outcome, r.err = domain.OutcomeTimeout, err
	default:
		r.outcome, r.err = domain.OutcomeError, err
	}
	finish(span, r)
	return r
}

func (c *Checker) runReference(ctx context.Context, reg *domain.Registry, refReg *bridge.ReferenceRegistry, root domain.Root, lock *domain.Lockfile) run {
	ctx, span := c.tracer.Start(ctx, spanName("reference", lock))
	defer span.End()

	var src reference.Registry = refReg
	if lock != nil {
		src = bridge.Pin(*lock).Reference(src)
	}

	start := time.Now()
	r := run{}
	rootSum, err := refReg.RootSummary(root)
	var resolved *reference.Resolution
	if err == nil {
		resolved, err = reference.Resolve(ctx, src, rootSum)
	}
	r.elapsed = time.Since(start).Seconds()

	switch {
	case err == nil:
		resolution, cerr := bridge.FromReference(reg, root, resolved)
		if cerr != nil {
			r.outcome, r.err = domain.OutcomeError, cerr
			break
		}
		r.outcome, r.resolution = domain.OutcomeSolved, &resolution
	case errors.Is(err, reference.ErrUnresolvable):
		r.outcome, r.err = domain.OutcomeNoSolution, err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		r.outcome, r.err = domain.OutcomeTimeout, err
	default:
		r.outcome, r.err, r.cycle = domain.OutcomeError, err, isCycle(err)
	}
	finish(span, r)
	return r
}

// isCycle reports whether err is the reference resolver's cyclic dependency error.
func isCycle(err error) bool {
	var cycle *reference.CycleError
	if errors.As(err, &cycle) {
		return true
	}
	// TODO: drop the message match once every resolver error path returns *CycleError.
	return strings.Contains(err.Error(), reference.CycleErrorPrefix)
}

func spanName(engine string, lock *domain.Lockfile) string {
	if lock != nil {
		return engine + " (locked)"
	}
	return engine
}

func finish(span ports.Span, r run) {
	span.SetAttribute("outcome", string(r.outcome))
	span.SetAttribute("seconds", r.elapsed)
	if r.outcome == domain.OutcomeError {
		span.RecordError(r.err)
	}
}
