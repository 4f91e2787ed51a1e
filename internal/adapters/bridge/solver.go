// Package bridge adapts the canonical registry model to the native query and
// summary types of each resolution engine, and converts their results back.
package bridge

import (
	"github.com/blang/semver/v4"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/engine/solver"
	"go.trai.ch/zerr"
)

// solverRange exposes a canonical requirement as a solver.Range.
type solverRange struct {
	req *domain.Requirement
}

func (r solverRange) Contains(v semver.Version) bool { return r.req.MatchesSemver(v) }
func (r solverRange) String() string                 { return r.req.String() }

// SolverSource implements solver.Source over a shared registry snapshot.
// It is cheap to build and must not be shared between concurrent solves.
type SolverSource struct {
	reg *domain.Registry
	loc domain.Locator
	// summaries memoizes translations; releases are immutable.
	summaries map[*domain.Release]*solver.Summary
}

// NewSolverSource creates a source backed by reg.
func NewSolverSource(reg *domain.Registry, loc domain.Locator) *SolverSource {
	return &SolverSource{
		reg:       reg,
		loc:       loc,
		summaries: make(map[*domain.Release]*solver.Summary),
	}
}

// Query returns every release of the package whose version lies in q.Range.
func (s *SolverSource) Query(q solver.Query) []*solver.Summary {
	releases := s.reg.Versions(domain.NewInternedString(q.Package))
	out := make([]*solver.Summary, 0, len(releases))
	for _, rel := range releases {
		sum := s.summary(rel)
		if q.Range != nil && !q.Range.Contains(sum.Version) {
			continue
		}
		out = append(out, sum)
	}
	return out
}

func (s *SolverSource) summary(rel *domain.Release) *solver.Summary {
	if sum, ok := s.summaries[rel]; ok {
		return sum
	}
	sum := &solver.Summary{
		Package:  rel.Name.String(),
		Version:  rel.Version.Semver(),
		Source:   s.loc.Registry,
		Features: rel.Features.Map(),
		Links:    rel.Links.String(),
		Deps:     make([]solver.Dep, 0, len(rel.Deps)),
	}
	for _, d := range rel.Deps {
		sum.Deps = append(sum.Deps, solver.Dep{
			Local:      d.Name.String(),
			Package:    d.Package.String(),
			Range:      solverRange{req: d.Req},
			Features:   d.Features.Names(),
			UseDefault: d.DefaultFeatures,
			Optional:   d.Optional,
			Kind:       solverKind(d.Kind),
		})
	}
	s.summaries[rel] = sum
	return sum
}

func solverKind(k domain.DepKind) solver.DepKind {
	switch k {
	case domain.KindDev:
		return solver.Development
	case domain.KindBuild:
		return solver.BuildScript
	default:
		return solver.Runtime
	}
}

// SolverRequest is the solver's demand for root: exactly that version, default features on.
func SolverRequest(root domain.Root) solver.Request {
	return solver.Request{
		Package:    root.Package.String(),
		Range:      solverRange{req: domain.ExactRequirement(root.Version)},
		UseDefault: true,
	}
}

// FromSolver converts a solver solution into a canonical resolution.
func FromSolver(reg *domain.Registry, root domain.Root, sol *solver.Solution) (domain.Resolution, error) {
	selected := make([]domain.Selection, 0, len(sol.Packages))
	for _, p := range sol.Packages {
		rel, ok := reg.Get(domain.NewInternedString(p.Summary.Package), domain.VersionOf(p.Summary.Version))
		if !ok {
			return domain.Resolution{}, zerr.With(zerr.Wrap(domain.ErrReleaseNotFound, "solver selected an unknown release"),
				"release", p.Summary.ID())
		}
		selected = append(selected, domain.Selection{Release: rel, Features: domain.NewFeatureSet(p.Features...)})
	}
	return domain.NewResolution(root, selected), nil
}
