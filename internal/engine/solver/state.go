package solver

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// activation is a summary selected into a bucket, with the features unified on it.
type activation struct {
	summary  *Summary
	features map[string]bool
	// deps holds the optional dependencies switched on, by local name.
	deps map[string]bool
}

func (a *activation) clone() *activation {
	return &activation{
		summary:  a.summary,
		features: maps.Clone(a.features),
		deps:     maps.Clone(a.deps),
	}
}

// demand asks for a version of pkg within rng with the given features.
type demand struct {
	pkg        string
	rng        Range
	features   []string
	useDefault bool
	from       string
}

// state is a partial assignment. States held by decision frames are never mutated.
type state struct {
	active map[bucket]*activation
	byPkg  map[string][]bucket
	links  map[string]bucket
	queue  []demand
}

func newState() *state {
	return &state{
		active: make(map[bucket]*activation),
		byPkg:  make(map[string][]bucket),
		links:  make(map[string]bucket),
	}
}

func (st *state) clone() *state {
	next := &state{
		active: make(map[bucket]*activation, len(st.active)),
		byPkg:  make(map[string][]bucket, len(st.byPkg)),
		links:  maps.Clone(st.links),
		queue:  slices.Clone(st.queue),
	}
	for b, a := range st.active {
		next.active[b] = a.clone()
	}
	for pkg, bs := range st.byPkg {
		next.byPkg[pkg] = slices.Clone(bs)
	}
	return next
}

// reusable returns the highest already selected version matching d, if any.
func (st *state) reusable(d demand) *activation {
	var best *activation
	for _, b := range st.byPkg[d.pkg] {
		a := st.active[b]
		if d.rng != nil && !d.rng.Contains(a.summary.Version) {
			continue
		}
		if best == nil || a.summary.Version.GT(best.summary.Version) {
			best = a
		}
	}
	return best
}

// candidates returns the versions that could open a new bucket for d, newest first.
func (st *state) candidates(src Source, d demand) []*Summary {
	found := src.Query(Query{Package: d.pkg, Range: d.rng})
	out := make([]*Summary, 0, len(found))
	for _, s := range found {
		if _, taken := st.active[bucketOf(s)]; taken {
			continue
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b *Summary) int { return b.Version.Compare(a.Version) })
	return out
}

// activate selects s into its bucket and applies d to it.
func (st *state) activate(s *Summary, d demand) error {
	b := bucketOf(s)
	if s.Links != "" {
		if other, ok := st.links[s.Links]; ok && other != b {
			return zerr.With(zerr.With(errLinksConflict, "links", s.Links), "package", s.ID())
		}
		st.links[s.Links] = b
	}
	a := &activation{
		summary:  s,
		features: make(map[string]bool),
		deps:     make(map[string]bool),
	}
	st.active[b] = a
	st.byPkg[s.Package] = append(st.byPkg[s.Package], b)
	return st.apply(a, d, true)
}

// apply unifies the features requested by d into a and queues the edges they open.
func (st *state) apply(a *activation, d demand, fresh bool) error {
	changed := fresh
	want := d.features
	if d.useDefault {
		if _, ok := a.summary.Features["default"]; ok {
			want = append(slices.Clone(want), "default")
		}
	}
	for _, f := range want {
		added, err := st.enable(a, f)
		if err != nil {
			return zerr.With(err, "required_by", d.from)
		}
		changed = changed || added
	}
	if changed {
		st.enqueueDeps(a)
	}
	return nil
}

// enable turns on a feature and everything it implies.
func (st *state) enable(a *activation, name string) (bool, error) {
	if a.features[name] {
		return false, nil
	}
	implied, declared := a.summary.Features[name]
	if !declared {
		if !implicitFeature(a.summary, name) {
			return false, zerr.With(zerr.With(errMissingFeature, "feature", name), "package", a.summary.ID())
		}
		a.features[name] = true
		a.deps[name] = true
		return true, nil
	}

	a.features[name] = true
	for _, item := range implied {
		if dep, ok := strings.CutPrefix(item, "dep:"); ok {
			if !hasDep(a.summary, dep) {
				return false, zerr.With(zerr.With(errUnknownDep, "dependency", dep), "package", a.summary.ID())
			}
			a.deps[dep] = true
			continue
		}
		if dep, _, ok := strings.Cut(item, "/"); ok {
			weak := strings.HasSuffix(dep, "?")
			dep = strings.TrimSuffix(dep, "?")
			if !hasDep(a.summary, dep) {
				return false, zerr.With(zerr.With(errUnknownDep, "dependency", dep), "package", a.summary.ID())
			}
			if !weak {
				a.deps[dep] = true
			}
			continue
		}
		if _, err := st.enable(a, item); err != nil {
			return false, err
		}
	}
	return true, nil
}

// enqueueDeps queues a demand for every edge of a that is currently active.
func (st *state) enqueueDeps(a *activation) {
	extra := make(map[string][]string)
	for _, f := range slices.Sorted(maps.Keys(a.features)) {
		for _, item := range a.summary.Features[f] {
			dep, feat, ok := strings.Cut(item, "/")
			if !ok || strings.HasPrefix(item, "dep:") {
				continue
			}
			if weak := strings.HasSuffix(dep, "?"); weak {
				dep = strings.TrimSuffix(dep, "?")
				if !depActive(a, dep) {
					continue
				}
			}
			extra[dep] = append(extra[dep], feat)
		}
	}

	for _, d := range a.summary.Deps {
		if d.Kind == Development {
			continue
		}
		if d.Optional && !a.deps[d.Local] {
			continue
		}
		features := slices.Clone(d.Features)
		features = append(features, extra[d.Local]...)
		st.queue = append(st.queue, demand{
			pkg:        d.Package,
			rng:        d.Range,
			features:   features,
			useDefault: d.UseDefault,
			from:       a.summary.ID(),
		})
	}
}

func (st *state) solution() *Solution {
	sol := &Solution{Packages: make([]Resolved, 0, len(st.active))}
	for _, a := range st.active {
		sol.Packages = append(sol.Packages, Resolved{
			Summary:  a.summary,
			Features: slices.Sorted(maps.Keys(a.features)),
		})
	}
	slices.SortFunc(sol.Packages, func(x, y Resolved) int {
		if c := strings.Compare(x.Summary.Package, y.Summary.Package); c != 0 {
			return c
		}
		return x.Summary.Version.Compare(y.Summary.Version)
	})
	return sol
}

// implicitFeature reports whether name is the implicit feature of an optional
// dependency that is never referenced with "dep:".
func implicitFeature(s *Summary, name string) bool {
	found := false
	for _, d := range s.Deps {
		if d.Optional && d.Kind != Development && d.Local == name {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, implied := range s.Features {
		if slices.Contains(implied, "dep:"+name) {
			return false
		}
	}
	return true
}

func hasDep(s *Summary, local string) bool {
	for _, d := range s.Deps {
		if d.Local == local && d.Kind != Development {
			return true
		}
	}
	return false
}

func depActive(a *activation, local string) bool {
	for _, d := range a.summary.Deps {
		if d.Local != local || d.Kind == Development {
			continue
		}
		if !d.Optional || a.deps[local] {
			return true
		}
	}
	return false
}
