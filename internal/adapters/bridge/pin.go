package bridge

import (
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/engine/reference"
	"go.trai.ch/crosscheck/internal/engine/solver"
)

// Pinned restricts an engine's package source to the releases of a lockfile.
type Pinned struct {
	pins map[string]bool
}

// Pin builds a restriction from a lock.
func Pin(lock domain.Lockfile) Pinned {
	pins := make(map[string]bool, len(lock.Packages))
	for _, p := range lock.Packages {
		pins[p.Name.String()+"@"+p.Version.String()] = true
	}
	return Pinned{pins: pins}
}

// Solver wraps src so that only pinned releases are returned.
func (p Pinned) Solver(src solver.Source) solver.Source {
	return pinnedSolver{src: src, pins: p.pins}
}

// Reference wraps reg so that only pinned releases are returned.
func (p Pinned) Reference(reg reference.Registry) reference.Registry {
	return pinnedReference{reg: reg, pins: p.pins}
}

type pinnedSolver struct {
	src  solver.Source
	pins map[string]bool
}

func (p pinnedSolver) Query(q solver.Query) []*solver.Summary {
	var out []*solver.Summary
	for _, s := range p.src.Query(q) {
		if p.pins[s.ID()] {
			out = append(out, s)
		}
	}
	return out
}

type pinnedReference struct {
	reg  reference.Registry
	pins map[string]bool
}

func (p pinnedReference) Query(dep *reference.Dependency, kind reference.QueryKind, f func(*reference.Summary)) error {
	return p.reg.Query(dep, kind, func(s *reference.Summary) {
		if p.pins[s.ID.Name.String()+"@"+s.ID.Version.String()] {
			f(s)
		}
	})
}
