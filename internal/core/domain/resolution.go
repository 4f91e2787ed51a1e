package domain

import (
	"slices"
)

// Selection is one release chosen by an engine, with the features it ended up with.
type Selection struct {
	Release  *Release
	Features FeatureSet
}

// Resolution is an engine-neutral view of a successful resolution.
type Resolution struct {
	Root Root
	// Selected is sorted by package name, then version.
	Selected []Selection
}

// NewResolution sorts the selections into canonical order.
func NewResolution(root Root, selected []Selection) Resolution {
	slices.SortFunc(selected, func(a, b Selection) int {
		return a.Release.Root().Compare(b.Release.Root())
	})
	return Resolution{Root: root, Selected: selected}
}

// Lookup returns every selected release of a package.
func (r Resolution) Lookup(name InternedString) []Selection {
	var out []Selection
	for _, s := range r.Selected {
		if s.Release.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Satisfying returns the selected release of dep's package that matches its requirement.
func (r Resolution) Satisfying(dep Dependency) (Selection, bool) {
	for _, s := range r.Lookup(dep.Package) {
		if dep.Req.Matches(s.Release.Version) {
			return s, true
		}
	}
	return Selection{}, false
}

// Lockfile records the resolution as a lockfile.
func (r Resolution) Lockfile() Lockfile {
	lf := Lockfile{Version: LockfileVersion, Root: r.Root}
	for _, s := range r.Selected {
		lf.Packages = append(lf.Packages, LockedPackage{Name: s.Release.Name, Version: s.Release.Version})
	}
	return lf
}

// OptionalActivation reports which optional dependencies of rel are switched on by
// the enabled features: directly through the implicit feature of the same name
// when the table does not declare it, or through a "dep:x" or non-weak "x/y" implication of an enabled feature.
func OptionalActivation(rel *Release, enabled FeatureSet) func(name string) bool {
	on := make(map[string]bool)
	for _, f := range enabled.Names() {
		if rel.implicitFeature(f) {
			on[f] = true
		}
		implies, ok := rel.Features.Lookup(f)
		if !ok {
			continue
		}
		for _, item := range implies.Names() {
			ref := ParseFeatureRef(item)
			if ref.Dep != "" && !ref.Weak {
				on[ref.Dep] = true
			}
		}
	}
	return func(name string) bool { return on[name] }
}

// HasFeature reports whether name is a feature of the release, declared in the
// table or implied by an optional dependency of the same name.
func (r *Release) HasFeature(name string) bool {
	return r.Features.Has(name) || r.implicitFeature(name)
}

func (r *Release) implicitFeature(name string) bool {
	return !r.Features.Has(name) && r.HasOptionalDep(name) && !explicitlyGated(r, name)
}

// explicitlyGated reports whether an optional dependency is referenced with the
// "dep:" syntax anywhere in the table, which removes its implicit feature.
func explicitlyGated(rel *Release, dep string) bool {
	for _, e := range rel.Features.Entries() {
		if e.Implies.Contains("dep:" + dep) {
			return true
		}
	}
	return false
}
