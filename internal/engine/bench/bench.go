// Package bench runs the differential checker over every root of a registry
// snapshot with a bounded worker pool and a single report writer.
package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/crosscheck/internal/engine/checker"
	"go.trai.ch/crosscheck/internal/engine/minimizer"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Checker classifies one root. *checker.Checker implements it.
type Checker interface {
	ports.Oracle
	Check(ctx context.Context, reg *domain.Registry, root domain.Root) checker.Result
}

// Options configures a run.
type Options struct {
	// Workers bounds the number of concurrent units. Zero means one per CPU.
	Workers int
	// Filter restricts units to packages whose name contains it.
	Filter string
	// Timeout bounds each unit. Zero disables it.
	Timeout time.Duration
	// Minimize shrinks each disagreement before it is persisted.
	Minimize bool
}

// Summary aggregates a run. CPU totals are in seconds.
type Summary struct {
	Units    int
	Agree    int
	Disagree int
	Skipped  int
	Timeouts int

	SolverCPU        float64
	ReferenceCPU     float64
	SolverLockCPU    float64
	ReferenceLockCPU float64

	Wall time.Duration
}

func (s *Summary) add(c domain.Comparison) {
	switch c.Classification {
	case domain.ClassificationAgree:
		s.Agree++
	case domain.ClassificationDisagree:
		s.Disagree++
	case domain.ClassificationTimeout:
		s.Timeouts++
	default:
		s.Skipped++
	}
	s.SolverCPU += c.SolverTime
	s.ReferenceCPU += c.ReferenceTime
	s.SolverLockCPU += c.SolverLockTime
	s.ReferenceLockCPU += c.ReferenceLockTime
}

// Driver dispatches units and persists disagreements.
type Driver struct {
	checker   Checker
	sink      ports.ReportSink
	snapshots ports.SnapshotStore
	progress  ports.Progress
	logger    ports.Logger
}

// NewDriver creates a Driver. The driver is the only writer of sink while Run executes.
func NewDriver(
	c Checker,
	sink ports.ReportSink,
	snapshots ports.SnapshotStore,
	progress ports.Progress,
	logger ports.Logger,
) *Driver {
	return &Driver{
		checker:   c,
		sink:      sink,
		snapshots: snapshots,
		progress:  progress,
		logger:    logger,
	}
}

// Run checks every root of reg matching opts.Filter. Disagreements do not stop
// the run; they are persisted and reported as domain.ErrDisagreement once every
// unit has finished. I/O errors abort the run.
func (d *Driver) Run(ctx context.Context, reg *domain.Registry, opts Options) (Summary, error) {
	start := time.Now()
	roots := reg.Roots(opts.Filter)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	summary := Summary{Units: len(roots)}
	records := make(chan domain.Comparison, workers)
	written := make(chan error, 1)
	go func() {
		written <- d.write(records, &summary, cancel)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, root := range roots {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := d.unit(gctx, reg, root, opts)
			if err != nil {
				return err
			}
			select {
			case records <- rec:
				return nil
			case <-gctx.Done():
				return context.Cause(gctx)
			}
		})
	}
	runErr := g.Wait()
	close(records)
	writeErr := <-written
	summary.Wall = time.Since(start)

	if writeErr != nil {
		return summary, writeErr
	}
	if runErr != nil {
		return summary, runErr
	}
	if summary.Disagree > 0 {
		return summary, zerr.With(zerr.Wrap(domain.ErrDisagreement, "benchmark found disagreements"), "count", summary.Disagree)
	}
	return summary, nil
}

// write is the single consumer of records. On a sink failure it cancels the
// run and keeps draining so producers never block forever.
func (d *Driver) write(records <-chan domain.Comparison, summary *Summary, cancel context.CancelCauseFunc) error {
	var failed error
	for rec := range records {
		if failed != nil {
			continue
		}
		summary.add(rec)
		if err := d.sink.Write(rec); err != nil {
			failed = zerr.With(zerr.Wrap(err, "write record"), "root", rec.Root().String())
			cancel(failed)
		}
	}
	return failed
}

func (d *Driver) unit(ctx context.Context, reg *domain.Registry, root domain.Root, opts Options) (domain.Comparison, error) {
	if ctx.Err() != nil {
		return domain.Comparison{}, context.Cause(ctx)
	}
	u := d.progress.Unit(root.String())

	checkCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	res := d.checker.Check(checkCtx, reg, root)
	_, _ = fmt.Fprintf(u, "solver=%s reference=%s\n", res.SolverOutcome, res.ReferenceOutcome)

	switch res.Classification {
	case domain.ClassificationAgree:
		u.Done(nil)
	case domain.ClassificationDisagree:
		if res.Reason != nil {
			_, _ = fmt.Fprintln(u, res.Reason.Error())
		}
		path, err := d.persist(ctx, reg, root, opts)
		if err != nil {
			u.Done(err)
			return res.Comparison, err
		}
		u.Done(zerr.With(zerr.Wrap(domain.ErrDisagreement, "persisted"), "case", path))
	default:
		u.Skipped()
	}
	return res.Comparison, nil
}

// persist saves the dependency closure of root, minimized when requested.
func (d *Driver) persist(ctx context.Context, reg *domain.Registry, root domain.Root, opts Options) (string, error) {
	releases := minimizer.Reachable(reg, root)
	if opts.Minimize {
		minimized, stats, err := minimizer.Minimize(ctx, releases, root, BoundedOracle(d.checker, opts.Timeout))
		switch {
		case err == nil:
			d.logger.Info(fmt.Sprintf("minimized %s: %d -> %d releases (%d attempts, %d passes)",
				root, len(releases), len(minimized), stats.Attempts, stats.Passes))
			releases = minimized
		case errors.Is(err, domain.ErrNotReproducible):
			d.logger.Warn(fmt.Sprintf("disagreement for %s did not reproduce on its dependency closure; saving it unminimized", root))
		default:
			d.logger.Warn(fmt.Sprintf("minimization of %s stopped early: %v", root, err))
			if len(minimized) > 0 {
				releases = minimized
			}
		}
	}

	raw := make([]domain.RawRelease, len(releases))
	for i, rel := range releases {
		raw[i] = rel.Raw()
	}
	return d.snapshots.Save(root, raw)
}

// BoundedOracle bounds every check made through o by timeout. A zero timeout
// returns o unchanged.
func BoundedOracle(o ports.Oracle, timeout time.Duration) ports.Oracle {
	if timeout <= 0 {
		return o
	}
	return timeoutOracle{oracle: o, timeout: timeout}
}

type timeoutOracle struct {
	oracle  ports.Oracle
	timeout time.Duration
}

func (o timeoutOracle) Disagrees(ctx context.Context, reg *domain.Registry, root domain.Root) bool {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.oracle.Disagrees(ctx, reg, root)
}
