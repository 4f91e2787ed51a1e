package solver

import (
	"context"

	"go.trai.ch/zerr"
)

// frame is a decision point: the state before the choice and the candidates left to try.
type frame struct {
	base *state
	d    demand
	rest []*Summary
}

// advance tries the remaining candidates in order and returns the first state that accepts one.
func (f *frame) advance() (*state, error) {
	var lastErr error
	for len(f.rest) > 0 {
		c := f.rest[0]
		f.rest = f.rest[1:]
		next := f.base.clone()
		if err := next.activate(c, f.d); err != nil {
			lastErr = err
			continue
		}
		return next, nil
	}
	return nil, lastErr
}

// Solve resolves req against src. Demands are processed first in, first out; a
// demand is satisfied by an already selected version when one matches, otherwise a
// new version is chosen, newest first, and recorded as a decision. When a demand
// cannot be satisfied the solver returns to the most recent decision with
// candidates left.
//
// The context is checked between steps; a cancelled context aborts the solve with
// its error.
func Solve(ctx context.Context, src Source, req Request) (*Solution, error) {
	st := newState()
	st.queue = append(st.queue, demand{
		pkg:        req.Package,
		rng:        req.Range,
		features:   req.Features,
		useDefault: req.UseDefault,
		from:       "root",
	})

	var stack []*frame
	for {
		if err := ctx.Err(); err != nil {
			return nil, zerr.Wrap(err, "solver interrupted")
		}
		if len(st.queue) == 0 {
			return st.solution(), nil
		}

		d := st.queue[0]
		st.queue = st.queue[1:]

		var failure error
		if a := st.reusable(d); a != nil {
			failure = st.apply(a, d, false)
		} else {
			cands := st.candidates(src, d)
			if len(cands) == 0 {
				failure = zerr.With(zerr.With(errNoCandidate, "package", d.pkg), "required_by", d.from)
				if d.rng != nil {
					failure = zerr.With(failure, "range", d.rng.String())
				}
			} else {
				f := &frame{base: st, d: d, rest: cands}
				next, err := f.advance()
				if len(f.rest) > 0 {
					stack = append(stack, f)
				}
				if err == nil {
					st = next
					continue
				}
				failure = err
			}
		}
		if failure == nil {
			continue
		}

		next, err := backtrack(&stack, failure)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(ErrNoSolution, err.Error()), "package", req.Package)
		}
		st = next
	}
}

// backtrack pops decisions until one yields a new state.
func backtrack(stack *[]*frame, failure error) (*state, error) {
	for len(*stack) > 0 {
		top := (*stack)[len(*stack)-1]
		next, err := top.advance()
		if len(top.rest) == 0 {
			*stack = (*stack)[:len(*stack)-1]
		}
		if err == nil {
			return next, nil
		}
		failure = err
	}
	return nil, failure
}
