package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Release is one published version of a package in canonical form.
type Release struct {
	Name    InternedString
	Version Version
	// Deps is sorted by package name, then local name, then kind.
	Deps     []Dependency
	Features FeatureTable
	// Links names the native library the package links, if any.
	Links  InternedString
	Yanked bool
}

// ParseRelease converts a raw record into a Release.
// Parsing never partially succeeds: any malformed field rejects the whole record.
func ParseRelease(raw RawRelease) (*Release, error) {
	if raw.Name == "" {
		return nil, zerr.Wrap(ErrMissingName, "parse release")
	}

	version, err := ParseVersion(raw.Version)
	if err != nil {
		return nil, zerr.With(err, "package", raw.Name)
	}

	deps := make([]Dependency, 0, len(raw.Deps))
	for _, rd := range raw.Deps {
		dep, err := parseDependency(rd)
		if err != nil {
			err = zerr.With(err, "package", raw.Name)
			return nil, zerr.With(err, "version", raw.Version)
		}
		deps = append(deps, dep)
	}
	slices.SortStableFunc(deps, compareDependencies)

	r := &Release{
		Name:     NewInternedString(raw.Name),
		Version:  version,
		Deps:     deps,
		Features: NewFeatureTable(raw.Features),
		Yanked:   raw.Yanked,
	}
	if raw.Links != "" {
		r.Links = NewInternedString(raw.Links)
	}
	return r, nil
}

func parseDependency(rd RawDependency) (Dependency, error) {
	if rd.Name == "" {
		return Dependency{}, zerr.Wrap(ErrMissingName, "parse dependency")
	}
	req, err := ParseRequirement(rd.Req)
	if err != nil {
		return Dependency{}, zerr.With(err, "dependency", rd.Name)
	}
	kind, err := ParseDepKind(rd.Kind)
	if err != nil {
		return Dependency{}, zerr.With(err, "dependency", rd.Name)
	}
	pkg := rd.Package
	if pkg == "" {
		pkg = rd.Name
	}
	return Dependency{
		Name:            NewInternedString(rd.Name),
		Package:         NewInternedString(pkg),
		Req:             req,
		Features:        NewFeatureSet(rd.Features...),
		DefaultFeatures: rd.DefaultFeatures,
		Kind:            kind,
		Optional:        rd.Optional,
	}, nil
}

// Root returns the (package, version) reference of the release.
func (r *Release) Root() Root {
	return Root{Package: r.Name, Version: r.Version}
}

// String returns "name@version".
func (r *Release) String() string {
	return r.Root().String()
}

// Raw converts the release back into its canonical raw record.
func (r *Release) Raw() RawRelease {
	raw := RawRelease{
		Name:     r.Name.String(),
		Version:  r.Version.String(),
		Features: r.Features.Map(),
		Links:    r.Links.String(),
		Yanked:   r.Yanked,
	}
	for _, d := range r.Deps {
		rd := RawDependency{
			Name:            d.Name.String(),
			Features:        d.Features.Names(),
			DefaultFeatures: d.DefaultFeatures,
			Optional:        d.Optional,
		}
		if d.Renamed() {
			rd.Package = d.Package.String()
		}
		if !d.Req.IsAny() {
			rd.Req = d.Req.String()
		}
		if d.Kind != KindNormal {
			rd.Kind = d.Kind.String()
		}
		raw.Deps = append(raw.Deps, rd)
	}
	return raw
}

// Equal reports whether two releases are structurally identical.
func (r *Release) Equal(other *Release) bool {
	return r.Name == other.Name &&
		r.Version == other.Version &&
		r.Links == other.Links &&
		r.Yanked == other.Yanked &&
		slices.Equal(r.Deps, other.Deps) &&
		r.Features.Equal(other.Features)
}

// ActiveDeps returns the dependency edges that participate in resolution when the
// given features are enabled: non-dev edges that are either mandatory or optional
// and switched on by a feature.
func (r *Release) ActiveDeps(enabledOptional func(name string) bool) []Dependency {
	out := make([]Dependency, 0, len(r.Deps))
	for _, d := range r.Deps {
		if d.Kind == KindDev {
			continue
		}
		if d.Optional && !enabledOptional(d.Name.String()) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// HasOptionalDep reports whether the release declares an optional dependency with the local name.
func (r *Release) HasOptionalDep(name string) bool {
	for _, d := range r.Deps {
		if d.Optional && d.Kind != KindDev && d.Name.String() == name {
			return true
		}
	}
	return false
}
