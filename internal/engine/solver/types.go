// Package solver implements a constraint solver that selects one version per
// semver-compatible bucket of each package, backtracking over an explicit
// decision stack.
package solver

import (
	"strconv"

	"github.com/blang/semver/v4"
)

// Range is a version requirement as understood by the solver.
type Range interface {
	Contains(v semver.Version) bool
	String() string
}

// DepKind classifies a dependency edge.
type DepKind uint8

const (
	// Runtime edges are always followed.
	Runtime DepKind = iota
	// Development edges are never followed.
	Development
	// BuildScript edges are followed like runtime edges.
	BuildScript
)

// Dep is one dependency edge of a summary.
type Dep struct {
	// Local is the name the dependent uses for the edge; features refer to it.
	Local      string
	Package    string
	Range      Range
	Features   []string
	UseDefault bool
	Optional   bool
	Kind       DepKind
}

// Summary describes one candidate version of a package.
type Summary struct {
	Package  string
	Version  semver.Version
	Source   string
	Deps     []Dep
	Features map[string][]string
	Links    string
}

// ID returns "package@version".
func (s *Summary) ID() string {
	return s.Package + "@" + s.Version.String()
}

// Query asks a Source for candidates of one package.
type Query struct {
	Package string
	// Range filters candidates. Nil asks for every version.
	Range Range
}

// Source is the package source the solver draws candidates from.
type Source interface {
	Query(q Query) []*Summary
}

// Request is the root demand of a solve.
type Request struct {
	Package    string
	Range      Range
	Features   []string
	UseDefault bool
}

// Resolved is one selected summary with its unified features.
type Resolved struct {
	Summary *Summary
	// Features is sorted.
	Features []string
}

// Solution is a successful assignment, sorted by package then version.
type Solution struct {
	Packages []Resolved
}

// bucket identifies a semver-compatible slot of a package.
type bucket struct {
	pkg    string
	compat string
}

func bucketOf(s *Summary) bucket {
	v := s.Version
	var compat string
	switch {
	case v.Major > 0:
		compat = strconv.FormatUint(v.Major, 10)
	case v.Minor > 0:
		compat = "0." + strconv.FormatUint(v.Minor, 10)
	default:
		compat = "0.0." + strconv.FormatUint(v.Patch, 10)
	}
	return bucket{pkg: s.Package, compat: compat}
}
