package bridge

import (
	"github.com/blang/semver/v4"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/engine/reference"
	"go.trai.ch/zerr"
)

// referenceReq exposes a canonical requirement as a reference.VersionReq.
type referenceReq struct {
	req *domain.Requirement
}

func (r referenceReq) Matches(v semver.Version) bool { return r.req.MatchesSemver(v) }
func (r referenceReq) String() string                { return r.req.String() }

// rootName and rootVersion identify the synthetic package that depends on the checked release.
const (
	rootName    = "root"
	rootVersion = "1.0.0"
)

// ReferenceRegistry implements reference.Registry over a shared registry snapshot.
// Releases are materialized into validated summaries the first time their
// package is queried; releases the reference resolver rejects are left out of
// its view. It must not be shared between concurrent resolutions.
type ReferenceRegistry struct {
	reg    *domain.Registry
	loc    domain.Locator
	source reference.SourceID
	views  map[domain.InternedString]*view
}

type view struct {
	summaries []*reference.Summary
	byVersion map[domain.Version]*reference.Summary
	rejected  []error
}

// NewReferenceRegistry creates a registry backed by reg.
func NewReferenceRegistry(reg *domain.Registry, loc domain.Locator) *ReferenceRegistry {
	return &ReferenceRegistry{
		reg:    reg,
		loc:    loc,
		source: reference.SourceID{URL: loc.Registry},
		views:  make(map[domain.InternedString]*view),
	}
}

// Query reports the summaries of dep's package. Exact queries keep only the
// versions dep matches; Alternatives and Normalized report every version.
func (r *ReferenceRegistry) Query(dep *reference.Dependency, kind reference.QueryKind, f func(*reference.Summary)) error {
	for _, s := range r.view(domain.NewInternedString(dep.PackageName.String())).summaries {
		if kind == reference.Exact && !dep.Matches(s) {
			continue
		}
		f(s)
	}
	return nil
}

// Contains reports whether root made it into the materialized view.
func (r *ReferenceRegistry) Contains(root domain.Root) bool {
	_, ok := r.view(root.Package).byVersion[root.Version]
	return ok
}

// Rejected returns the materialization errors of a package's releases.
func (r *ReferenceRegistry) Rejected(name domain.InternedString) []error {
	return r.view(name).rejected
}

// RootSummary builds the synthetic root that depends on exactly root, default features on.
func (r *ReferenceRegistry) RootSummary(root domain.Root) (*reference.Summary, error) {
	id := reference.PackageID{
		Name:    reference.Intern(rootName),
		Version: semver.MustParse(rootVersion),
		Source:  reference.SourceID{URL: r.loc.Root},
	}
	name := reference.Intern(root.Package.String())
	dep := reference.Dependency{
		Name:            name,
		PackageName:     name,
		Req:             referenceReq{req: domain.ExactRequirement(root.Version)},
		Source:          r.source,
		DefaultFeatures: true,
	}
	return reference.NewSummary(id, []reference.Dependency{dep}, nil, 0)
}

func (r *ReferenceRegistry) view(name domain.InternedString) *view {
	if v, ok := r.views[name]; ok {
		return v
	}
	releases := r.reg.Versions(name)
	v := &view{
		summaries: make([]*reference.Summary, 0, len(releases)),
		byVersion: make(map[domain.Version]*reference.Summary, len(releases)),
	}
	for _, rel := range releases {
		s, err := r.summary(rel)
		if err != nil {
			v.rejected = append(v.rejected, zerr.With(err, "release", rel.String()))
			continue
		}
		v.summaries = append(v.summaries, s)
		v.byVersion[rel.Version] = s
	}
	r.views[name] = v
	return v
}

func (r *ReferenceRegistry) summary(rel *domain.Release) (*reference.Summary, error) {
	id := reference.PackageID{
		Name:    reference.Intern(rel.Name.String()),
		Version: rel.Version.Semver(),
		Source:  r.source,
	}
	deps := make([]reference.Dependency, 0, len(rel.Deps))
	for _, d := range rel.Deps {
		deps = append(deps, reference.Dependency{
			Name:            reference.Intern(d.Name.String()),
			PackageName:     reference.Intern(d.Package.String()),
			Req:             referenceReq{req: d.Req},
			Source:          r.source,
			Features:        reference.InternAll(d.Features.Names()),
			DefaultFeatures: d.DefaultFeatures,
			Kind:            referenceKind(d.Kind),
			Optional:        d.Optional,
		})
	}
	features := make(map[reference.Symbol][]reference.Symbol, rel.Features.Len())
	for _, e := range rel.Features.Entries() {
		features[reference.Intern(e.Name.String())] = reference.InternAll(e.Implies.Names())
	}
	var links reference.Symbol
	if !rel.Links.IsZero() {
		links = reference.Intern(rel.Links.String())
	}
	return reference.NewSummary(id, deps, features, links)
}

func referenceKind(k domain.DepKind) reference.DepKind {
	switch k {
	case domain.KindDev:
		return reference.Development
	case domain.KindBuild:
		return reference.Build
	default:
		return reference.Normal
	}
}

// FromReference converts a reference resolution into a canonical resolution.
// The synthetic root is dropped.
func FromReference(reg *domain.Registry, root domain.Root, res *reference.Resolution) (domain.Resolution, error) {
	ids := res.Packages()
	selected := make([]domain.Selection, 0, len(ids))
	for _, id := range ids {
		if id.Equal(res.Root()) {
			continue
		}
		rel, ok := reg.Get(domain.NewInternedString(id.Name.String()), domain.VersionOf(id.Version))
		if !ok {
			return domain.Resolution{}, zerr.With(zerr.Wrap(domain.ErrReleaseNotFound, "reference resolver selected an unknown release"),
				"release", id.String())
		}
		feats := res.Features(id)
		names := make([]string, len(feats))
		for i, f := range feats {
			names[i] = f.String()
		}
		selected = append(selected, domain.Selection{Release: rel, Features: domain.NewFeatureSet(names...)})
	}
	return domain.NewResolution(root, selected), nil
}
