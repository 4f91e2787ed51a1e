package domain

import "go.trai.ch/zerr"

// DepKind classifies when a dependency is needed.
type DepKind uint8

const (
	// KindNormal is a regular runtime dependency.
	KindNormal DepKind = iota
	// KindDev is only needed for tests, examples and benchmarks of the declaring package.
	KindDev
	// KindBuild is needed by the build script.
	KindBuild
)

// String returns the index spelling of the kind.
func (k DepKind) String() string {
	switch k {
	case KindDev:
		return "dev"
	case KindBuild:
		return "build"
	default:
		return "normal"
	}
}

// ParseDepKind parses the index spelling of a kind. The empty string is KindNormal.
func ParseDepKind(s string) (DepKind, error) {
	switch s {
	case "", "normal":
		return KindNormal, nil
	case "dev":
		return KindDev, nil
	case "build":
		return KindBuild, nil
	default:
		return KindNormal, zerr.With(zerr.Wrap(ErrInvalidDepKind, "parse dependency kind"), "kind", s)
	}
}

// Dependency is one edge declared by a release.
// It is a comparable value: interned fields make equality and hashing cheap.
type Dependency struct {
	// Name is the name the dependent uses for the edge (may be a rename).
	Name InternedString
	// Package is the registry package the edge points at.
	Package InternedString
	// Req is the interned version requirement.
	Req *Requirement
	// Features are extra features requested on the target.
	Features FeatureSet
	// DefaultFeatures requests the target's "default" feature.
	DefaultFeatures bool
	// Kind is normal, dev or build.
	Kind DepKind
	// Optional edges are only active when enabled through a feature.
	Optional bool
}

// Renamed reports whether the dependency uses a local name differing from its package.
func (d Dependency) Renamed() bool {
	return d.Name != d.Package
}

// compareDependencies orders dependencies by package, then local name, then kind.
func compareDependencies(a, b Dependency) int {
	if c := a.Package.Compare(b.Package); c != 0 {
		return c
	}
	if c := a.Name.Compare(b.Name); c != 0 {
		return c
	}
	return int(a.Kind) - int(b.Kind)
}
