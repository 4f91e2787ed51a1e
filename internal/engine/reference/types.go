// Package reference implements a recursive reference resolver. It explores
// candidate versions depth first, cloning its state at every step, and refuses
// dependency graphs that contain cycles.
package reference

import (
	"fmt"
	"slices"
	"strings"

	"github.com/blang/semver/v4"
	"go.trai.ch/zerr"
)

// SourceID identifies where a package comes from.
type SourceID struct {
	URL string
}

// PackageID identifies one version of a package from one source.
type PackageID struct {
	Name    Symbol
	Version semver.Version
	Source  SourceID
}

// String returns "name vX.Y.Z".
func (id PackageID) String() string {
	return fmt.Sprintf("%s v%s", id.Name, id.Version)
}

// Equal reports whether both ids name the same version from the same source.
func (id PackageID) Equal(other PackageID) bool {
	return id.Name == other.Name && id.Source == other.Source && id.Version.Equals(other.Version)
}

func (id PackageID) key() string {
	return id.Name.String() + "@" + id.Version.String() + "#" + id.Source.URL
}

// VersionReq is a version requirement as understood by the resolver.
type VersionReq interface {
	Matches(v semver.Version) bool
	String() string
}

// DepKind classifies a dependency edge.
type DepKind uint8

const (
	// Normal edges are always followed.
	Normal DepKind = iota
	// Development edges are ignored during resolution.
	Development
	// Build edges are followed like normal ones.
	Build
)

// Dependency is a dependency declaration as written in a manifest.
type Dependency struct {
	// Name is the name in the manifest, which may rename PackageName.
	Name            Symbol
	PackageName     Symbol
	Req             VersionReq
	Source          SourceID
	Features        []Symbol
	DefaultFeatures bool
	Kind            DepKind
	Optional        bool
}

// Matches reports whether s is a candidate for the dependency.
func (d *Dependency) Matches(s *Summary) bool {
	return s.ID.Name == d.PackageName && s.ID.Source == d.Source && d.Req.Matches(s.ID.Version)
}

// FeatureKind tells the forms of a feature value apart.
type FeatureKind uint8

const (
	// FeatureEnable enables another feature of the same package.
	FeatureEnable FeatureKind = iota
	// FeatureDep enables an optional dependency ("dep:x").
	FeatureDep
	// FeatureDepFeature enables a feature of a dependency ("x/y" or "x?/y").
	FeatureDepFeature
)

// FeatureValue is one parsed entry of a feature's list.
type FeatureValue struct {
	Kind    FeatureKind
	Feature Symbol
	Dep     Symbol
	Weak    bool
}

// ParseFeatureValue parses a feature table entry.
func ParseFeatureValue(s string) FeatureValue {
	if dep, ok := strings.CutPrefix(s, "dep:"); ok {
		return FeatureValue{Kind: FeatureDep, Dep: Intern(dep)}
	}
	if dep, feat, ok := strings.Cut(s, "/"); ok {
		weak := strings.HasSuffix(dep, "?")
		return FeatureValue{
			Kind:    FeatureDepFeature,
			Dep:     Intern(strings.TrimSuffix(dep, "?")),
			Feature: Intern(feat),
			Weak:    weak,
		}
	}
	return FeatureValue{Kind: FeatureEnable, Feature: Intern(s)}
}

// Summary is a validated description of one package version.
type Summary struct {
	ID       PackageID
	Deps     []Dependency
	Features map[Symbol][]FeatureValue
	// implicit holds optional dependencies that double as features.
	implicit map[Symbol]bool
	Links    Symbol
}

var (
	errInvalidFeature = zerr.New("invalid feature table")
)

// NewSummary validates the feature table against the dependencies, the way a
// registry validates a published manifest, and builds a Summary.
func NewSummary(id PackageID, deps []Dependency, features map[Symbol][]Symbol, links Symbol) (*Summary, error) {
	s := &Summary{
		ID:       id,
		Deps:     deps,
		Features: make(map[Symbol][]FeatureValue, len(features)),
		implicit: make(map[Symbol]bool),
		Links:    links,
	}

	optional := make(map[Symbol]bool)
	known := make(map[Symbol]bool)
	for _, d := range deps {
		if d.Kind == Development {
			continue
		}
		known[d.Name] = true
		if d.Optional {
			optional[d.Name] = true
		}
	}

	gated := make(map[Symbol]bool)
	for name, values := range features {
		parsed := make([]FeatureValue, 0, len(values))
		for _, v := range values {
			fv := ParseFeatureValue(v.String())
			if fv.Kind == FeatureDep {
				gated[fv.Dep] = true
			}
			parsed = append(parsed, fv)
		}
		s.Features[name] = parsed
	}
	for dep := range optional {
		if _, declared := features[dep]; !declared && !gated[dep] {
			s.implicit[dep] = true
		}
	}

	for name, values := range s.Features {
		for _, fv := range values {
			switch fv.Kind {
			case FeatureEnable:
				if _, ok := s.Features[fv.Feature]; !ok && !s.implicit[fv.Feature] {
					return nil, zerr.With(zerr.With(errInvalidFeature, "feature", name.String()),
						"detail", fmt.Sprintf("includes %q which is neither a dependency nor another feature", fv.Feature))
				}
			case FeatureDep:
				if !optional[fv.Dep] {
					return nil, zerr.With(zerr.With(errInvalidFeature, "feature", name.String()),
						"detail", fmt.Sprintf("includes dep:%s which is not an optional dependency", fv.Dep))
				}
			case FeatureDepFeature:
				if !known[fv.Dep] {
					return nil, zerr.With(zerr.With(errInvalidFeature, "feature", name.String()),
						"detail", fmt.Sprintf("includes %s/%s but %s is not a dependency", fv.Dep, fv.Feature, fv.Dep))
				}
			}
		}
	}
	return s, nil
}

// HasFeature reports whether name is a feature of the summary, declared or implicit.
func (s *Summary) HasFeature(name Symbol) bool {
	if _, ok := s.Features[name]; ok {
		return true
	}
	return s.implicit[name]
}

// QueryKind selects how a Registry filters candidates.
type QueryKind uint8

const (
	// Exact returns only summaries matching the dependency.
	Exact QueryKind = iota
	// Alternatives returns every version of the name, for diagnostics.
	Alternatives
	// Normalized returns every version of the name, for spelling suggestions.
	Normalized
)

// Registry is the package source the resolver queries.
type Registry interface {
	Query(dep *Dependency, kind QueryKind, f func(*Summary)) error
}

// Resolution is a successful resolution.
type Resolution struct {
	root     PackageID
	ids      []PackageID
	features map[string][]Symbol
	sums     map[string]*Summary
}

// Root returns the id of the summary the resolution started from.
func (r *Resolution) Root() PackageID {
	return r.root
}

// Packages returns every activated package id, sorted by name then version.
func (r *Resolution) Packages() []PackageID {
	return r.ids
}

// Features returns the features activated on id, sorted.
func (r *Resolution) Features(id PackageID) []Symbol {
	return r.features[id.key()]
}

// Summary returns the summary activated for id.
func (r *Resolution) Summary(id PackageID) *Summary {
	return r.sums[id.key()]
}

func sortIDs(ids []PackageID) {
	slices.SortFunc(ids, func(a, b PackageID) int {
		if c := strings.Compare(a.Name.String(), b.Name.String()); c != 0 {
			return c
		}
		if c := a.Version.Compare(b.Version); c != 0 {
			return c
		}
		return strings.Compare(a.Source.URL, b.Source.URL)
	})
}
