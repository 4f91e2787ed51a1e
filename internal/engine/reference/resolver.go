package reference

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

type slot struct {
	name   Symbol
	source SourceID
	compat string
}

func slotOf(id PackageID) slot {
	v := id.Version
	var compat string
	switch {
	case v.Major > 0:
		compat = strconv.FormatUint(v.Major, 10)
	case v.Minor > 0:
		compat = "0." + strconv.FormatUint(v.Minor, 10)
	default:
		compat = "0.0." + strconv.FormatUint(v.Patch, 10)
	}
	return slot{name: id.Name, source: id.Source, compat: compat}
}

type candidate struct {
	summary  *Summary
	features map[Symbol]bool
	enabled  map[Symbol]bool // optional dependencies switched on
}

type pending struct {
	dep      *Dependency
	features []Symbol
	parent   PackageID
}

// resolveState is the partial resolution explored by one branch of the search.
type resolveState struct {
	activations map[slot]*candidate
	links       map[Symbol]slot
	// edges is shared between clones; it is only ever prepended to.
	edges *edge
}

// edge records that from depends on to in the resolution being built.
type edge struct {
	from, to slot
	next     *edge
}

func (c *resolveState) link(from, to PackageID) {
	c.edges = &edge{from: slotOf(from), to: slotOf(to), next: c.edges}
}

func (c *resolveState) clone() *resolveState {
	next := &resolveState{
		activations: make(map[slot]*candidate, len(c.activations)),
		links:       maps.Clone(c.links),
		edges:       c.edges,
	}
	for k, v := range c.activations {
		next.activations[k] = &candidate{
			summary:  v.summary,
			features: maps.Clone(v.features),
			enabled:  maps.Clone(v.enabled),
		}
	}
	return next
}

type resolver struct {
	ctx context.Context
	reg Registry
}

// Resolve resolves the dependencies of root against reg. The root summary is
// part of the result. A resolution whose graph contains a cycle is rejected with
// a *CycleError.
func Resolve(ctx context.Context, reg Registry, root *Summary) (*Resolution, error) {
	r := &resolver{ctx: ctx, reg: reg}

	cx := &resolveState{
		activations: make(map[slot]*candidate),
		links:       make(map[Symbol]slot),
	}
	rootCand := &candidate{summary: root, features: make(map[Symbol]bool), enabled: make(map[Symbol]bool)}
	cx.activations[slotOf(root.ID)] = rootCand

	final, err := r.step(cx, r.edges(rootCand))
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		root:     root.ID,
		features: make(map[string][]Symbol, len(final.activations)),
		sums:     make(map[string]*Summary, len(final.activations)),
	}
	for _, c := range final.activations {
		key := c.summary.ID.key()
		res.ids = append(res.ids, c.summary.ID)
		res.sums[key] = c.summary
		feats := slices.Collect(maps.Keys(c.features))
		slices.SortFunc(feats, func(a, b Symbol) int { return strings.Compare(a.String(), b.String()) })
		res.features[key] = feats
	}
	sortIDs(res.ids)

	if err := checkCycles(final); err != nil {
		return nil, err
	}
	return res, nil
}

// step satisfies the first pending dependency and recurses on the rest.
func (r *resolver) step(cx *resolveState, queue []pending) (*resolveState, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, zerr.Wrap(err, "resolution interrupted")
	}
	if len(queue) == 0 {
		return cx, nil
	}
	p, rest := queue[0], queue[1:]

	if existing := cx.matching(p.dep); existing != nil {
		next := cx.clone()
		c := next.activations[slotOf(existing.summary.ID)]
		next.link(p.parent, c.summary.ID)
		more, err := r.enable(c, p, false)
		if err != nil {
			return nil, err
		}
		return r.step(next, append(slices.Clone(rest), more...))
	}

	cands, err := r.query(cx, p.dep)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, r.noCandidates(p)
	}

	var last error
	for _, s := range cands {
		next := cx.clone()
		more, err := next.activate(r, s, p)
		if err != nil {
			last = err
			continue
		}
		done, err := r.step(next, append(slices.Clone(rest), more...))
		if err == nil {
			return done, nil
		}
		if r.ctx.Err() != nil {
			return nil, err
		}
		last = err
	}
	return nil, last
}

// matching returns the newest activated summary satisfying dep.
func (c *resolveState) matching(dep *Dependency) *candidate {
	var best *candidate
	for _, cand := range c.activations {
		if !dep.Matches(cand.summary) {
			continue
		}
		if best == nil || cand.summary.ID.Version.GT(best.summary.ID.Version) {
			best = cand
		}
	}
	return best
}

func (r *resolver) query(cx *resolveState, dep *Dependency) ([]*Summary, error) {
	var out []*Summary
	err := r.reg.Query(dep, Exact, func(s *Summary) {
		if _, taken := cx.activations[slotOf(s.ID)]; taken {
			return
		}
		out = append(out, s)
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "registry query failed"), "dependency", dep.PackageName.String())
	}
	slices.SortStableFunc(out, func(a, b *Summary) int { return b.ID.Version.Compare(a.ID.Version) })
	return out, nil
}

// noCandidates builds the failure for a dependency nothing matches, listing the
// versions that exist under the name or a similarly spelled one.
func (r *resolver) noCandidates(p pending) error {
	msg := fmt.Sprintf("no matching package named `%s` found (required by %s)", p.dep.PackageName, p.parent)

	var versions []string
	_ = r.reg.Query(p.dep, Alternatives, func(s *Summary) {
		versions = append(versions, s.ID.Version.String())
	})
	if len(versions) > 0 {
		msg = fmt.Sprintf("failed to select a version for the requirement `%s = \"%s\"` (required by %s); candidate versions found which didn't match: %s",
			p.dep.Name, p.dep.Req, p.parent, strings.Join(versions, ", "))
	} else {
		alt := *p.dep
		alt.PackageName = Intern(swapSeparators(p.dep.PackageName.String()))
		if alt.PackageName != p.dep.PackageName {
			found := false
			_ = r.reg.Query(&alt, Normalized, func(*Summary) { found = true })
			if found {
				msg += fmt.Sprintf("; perhaps you meant: %s", alt.PackageName)
			}
		}
	}
	return zerr.With(zerr.Wrap(ErrUnresolvable, msg), "package", p.dep.PackageName.String())
}

func swapSeparators(name string) string {
	if strings.Contains(name, "-") {
		return strings.ReplaceAll(name, "-", "_")
	}
	return strings.ReplaceAll(name, "_", "-")
}

// activate adds s to the context and enables the features p asks for.
func (c *resolveState) activate(r *resolver, s *Summary, p pending) ([]pending, error) {
	sl := slotOf(s.ID)
	if s.Links != 0 {
		if other, ok := c.links[s.Links]; ok && other != sl {
			return nil, zerr.With(zerr.Wrap(ErrUnresolvable, fmt.Sprintf("package `%s` links to native library `%s`, which is already linked", s.ID, s.Links)),
				"package", s.ID.Name.String())
		}
		c.links[s.Links] = sl
	}
	cand := &candidate{summary: s, features: make(map[Symbol]bool), enabled: make(map[Symbol]bool)}
	c.activations[sl] = cand
	c.link(p.parent, s.ID)
	return r.enable(cand, p, true)
}

// enable unifies the features of p into c. When anything changed it returns the
// edges of c to visit again.
func (r *resolver) enable(c *candidate, p pending, fresh bool) ([]pending, error) {
	changed := fresh
	want := slices.Clone(p.features)
	if p.dep.DefaultFeatures {
		if _, ok := c.summary.Features[Intern("default")]; ok {
			want = append(want, Intern("default"))
		}
	}
	for _, f := range want {
		added, err := activateFeature(c, f)
		if err != nil {
			return nil, zerr.With(err, "required_by", p.parent.String())
		}
		changed = changed || added
	}
	if !changed {
		return nil, nil
	}
	return r.edges(c), nil
}

func activateFeature(c *candidate, f Symbol) (bool, error) {
	if c.features[f] {
		return false, nil
	}
	if !c.summary.HasFeature(f) {
		return false, zerr.With(zerr.Wrap(ErrUnresolvable,
			fmt.Sprintf("package `%s` does not have the feature `%s`", c.summary.ID, f)), "package", c.summary.ID.Name.String())
	}
	c.features[f] = true
	values, declared := c.summary.Features[f]
	if !declared {
		c.enabled[f] = true
		return true, nil
	}
	for _, fv := range values {
		switch fv.Kind {
		case FeatureEnable:
			if _, err := activateFeature(c, fv.Feature); err != nil {
				return false, err
			}
		case FeatureDep:
			c.enabled[fv.Dep] = true
		case FeatureDepFeature:
			if !fv.Weak {
				c.enabled[fv.Dep] = true
			}
		}
	}
	return true, nil
}

// edges lists the dependencies of c that are active under its current features.
func (r *resolver) edges(c *candidate) []pending {
	extra := make(map[Symbol][]Symbol)
	feats := slices.Collect(maps.Keys(c.features))
	slices.SortFunc(feats, func(a, b Symbol) int { return strings.Compare(a.String(), b.String()) })
	for _, f := range feats {
		for _, fv := range c.summary.Features[f] {
			if fv.Kind != FeatureDepFeature {
				continue
			}
			if fv.Weak && !c.isActive(fv.Dep) {
				continue
			}
			extra[fv.Dep] = append(extra[fv.Dep], fv.Feature)
		}
	}

	var out []pending
	for i := range c.summary.Deps {
		d := &c.summary.Deps[i]
		if d.Kind == Development {
			continue
		}
		if d.Optional && !c.enabled[d.Name] {
			continue
		}
		out = append(out, pending{
			dep:      d,
			features: append(slices.Clone(d.Features), extra[d.Name]...),
			parent:   c.summary.ID,
		})
	}
	return out
}

func (c *candidate) isActive(name Symbol) bool {
	for _, d := range c.summary.Deps {
		if d.Name == name && d.Kind != Development && (!d.Optional || c.enabled[name]) {
			return true
		}
	}
	return false
}
