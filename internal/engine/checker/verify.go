package checker

import (
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/zerr"
)

// Verify checks that a resolution is internally consistent: the root is
// selected, every active dependency edge is satisfied by a selected release
// carrying the requested features, enabled features exist and are closed under
// their implications, and no two releases link the same native library.
func Verify(res domain.Resolution) error {
	rootSel := res.Lookup(res.Root.Package)
	found := false
	for _, s := range rootSel {
		if s.Release.Version == res.Root.Version {
			found = true
		}
	}
	if !found {
		return inconsistent("root is not selected", res.Root.String())
	}

	links := make(map[domain.InternedString]*domain.Release)
	for _, s := range res.Selected {
		rel := s.Release
		if !rel.Links.IsZero() {
			if other, ok := links[rel.Links]; ok {
				return zerr.With(inconsistent("native library linked twice", rel.String()), "other", other.String())
			}
			links[rel.Links] = rel
		}
		if err := verifySelection(res, s); err != nil {
			return err
		}
	}
	return nil
}

func verifySelection(res domain.Resolution, s domain.Selection) error {
	rel := s.Release
	for _, f := range s.Features.Names() {
		if !rel.HasFeature(f) {
			return zerr.With(inconsistent("enabled feature does not exist", rel.String()), "feature", f)
		}
	}

	active := domain.OptionalActivation(rel, s.Features)
	deps := rel.ActiveDeps(active)
	for _, dep := range deps {
		target, ok := res.Satisfying(dep)
		if !ok {
			return zerr.With(inconsistent("requirement not satisfied", rel.String()), "dependency", dep.Package.String()+" "+dep.Req.String())
		}
		for _, f := range dep.Features.Names() {
			if !target.Features.Contains(f) {
				return zerr.With(zerr.With(inconsistent("requested feature not enabled", rel.String()), "dependency", target.Release.String()), "feature", f)
			}
		}
		if dep.DefaultFeatures && target.Release.Features.Has("default") && !target.Features.Contains("default") {
			return zerr.With(zerr.With(inconsistent("default features not enabled", rel.String()), "dependency", target.Release.String()), "feature", "default")
		}
	}

	for _, e := range rel.Features.Entries() {
		if !s.Features.Contains(e.Name.String()) {
			continue
		}
		for _, item := range e.Implies.Names() {
			if err := verifyImplication(res, s, deps, item); err != nil {
				return zerr.With(err, "feature", e.Name.String())
			}
		}
	}
	return nil
}

func verifyImplication(res domain.Resolution, s domain.Selection, deps []domain.Dependency, item string) error {
	ref := domain.ParseFeatureRef(item)
	switch {
	case ref.DepOnly:
		return nil
	case ref.Dep == "":
		if !s.Features.Contains(ref.Feature) {
			return zerr.With(inconsistent("implied feature not enabled", s.Release.String()), "implies", item)
		}
		return nil
	}
	for _, dep := range deps {
		if dep.Name.String() != ref.Dep {
			continue
		}
		target, ok := res.Satisfying(dep)
		if !ok {
			// Reported by the edge check.
			return nil
		}
		if !target.Features.Contains(ref.Feature) {
			return zerr.With(zerr.With(inconsistent("implied dependency feature not enabled", s.Release.String()), "implies", item),
				"dependency", target.Release.String())
		}
	}
	return nil
}

func inconsistent(msg, release string) error {
	return zerr.With(zerr.Wrap(domain.ErrInconsistentSolution, msg), "release", release)
}
