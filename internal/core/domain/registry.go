package domain

import (
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Registry is an immutable in-memory snapshot of a package registry.
// It is built once and then shared read-only by every concurrent resolution;
// shrinking produces a fresh Registry and never mutates the original.
type Registry struct {
	packages map[InternedString][]*Release
	names    []InternedString
	count    int
}

// Filter selects which records enter a registry. Nil predicates accept everything.
type Filter struct {
	// Package is applied to the package name before the record is parsed.
	Package func(name string) bool
	// Release is applied to the parsed release (e.g. to exclude yanked releases).
	Release func(*Release) bool
}

// ExcludeYanked is a release predicate dropping yanked releases.
func ExcludeYanked(r *Release) bool {
	return !r.Yanked
}

// BuildReport summarizes what happened while building a registry.
type BuildReport struct {
	Accepted    int
	Filtered    int
	Overwritten int
	// Errors holds one parse error per rejected record.
	Errors []error
}

// BuildRegistry parses raw records into a Registry. Malformed records are skipped
// and reported; records rejected by the filter are omitted entirely.
// A later record with the same (package, version) overwrites an earlier one.
func BuildRegistry(records iter.Seq[RawRelease], filter Filter) (*Registry, BuildReport) {
	var report BuildReport
	releases := make([]*Release, 0)
	for raw := range records {
		if filter.Package != nil && !filter.Package(raw.Name) {
			report.Filtered++
			continue
		}
		rel, err := ParseRelease(raw)
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		if filter.Release != nil && !filter.Release(rel) {
			report.Filtered++
			continue
		}
		releases = append(releases, rel)
	}
	reg := NewRegistry(releases)
	report.Accepted = reg.Len()
	report.Overwritten = len(releases) - reg.Len()
	return reg, report
}

// NewRegistry indexes already parsed releases. Later duplicates win.
func NewRegistry(releases []*Release) *Registry {
	byName := make(map[InternedString]map[Version]*Release)
	for _, rel := range releases {
		vs, ok := byName[rel.Name]
		if !ok {
			vs = make(map[Version]*Release)
			byName[rel.Name] = vs
		}
		vs[rel.Version] = rel
	}

	reg := &Registry{
		packages: make(map[InternedString][]*Release, len(byName)),
		names:    make([]InternedString, 0, len(byName)),
	}
	for name, vs := range byName {
		list := make([]*Release, 0, len(vs))
		for _, rel := range vs {
			list = append(list, rel)
		}
		slices.SortFunc(list, func(a, b *Release) int { return a.Version.Compare(b.Version) })
		reg.packages[name] = list
		reg.names = append(reg.names, name)
		reg.count += len(list)
	}
	slices.SortFunc(reg.names, InternedString.Compare)
	return reg
}

// Len returns the number of releases in the snapshot.
func (r *Registry) Len() int {
	return r.count
}

// Packages returns the package names in sorted order.
func (r *Registry) Packages() []InternedString {
	return r.names
}

// Versions returns the releases of a package sorted by ascending version.
// The slice is shared and must not be modified.
func (r *Registry) Versions(name InternedString) []*Release {
	return r.packages[name]
}

// Get looks up a single release.
func (r *Registry) Get(name InternedString, v Version) (*Release, bool) {
	list := r.packages[name]
	i, found := slices.BinarySearchFunc(list, v, func(rel *Release, v Version) int {
		return rel.Version.Compare(v)
	})
	if !found {
		return nil, false
	}
	return list[i], true
}

// Contains reports whether the root release is present.
func (r *Registry) Contains(root Root) bool {
	_, ok := r.Get(root.Package, root.Version)
	return ok
}

// Releases iterates every release in canonical order: by package name, then version.
func (r *Registry) Releases() iter.Seq[*Release] {
	return func(yield func(*Release) bool) {
		for _, name := range r.names {
			for _, rel := range r.packages[name] {
				if !yield(rel) {
					return
				}
			}
		}
	}
}

// Flatten returns the releases in canonical order as a fresh slice.
func (r *Registry) Flatten() []*Release {
	return slices.AppendSeq(make([]*Release, 0, r.count), r.Releases())
}

// Roots enumerates every (package, version) pair whose package name contains substring.
// An empty substring selects everything.
func (r *Registry) Roots(substring string) []Root {
	roots := make([]Root, 0, r.count)
	for _, name := range r.names {
		if substring != "" && !strings.Contains(name.String(), substring) {
			continue
		}
		for _, rel := range r.packages[name] {
			roots = append(roots, rel.Root())
		}
	}
	return roots
}

// Raw serializes the snapshot back into canonical raw records.
func (r *Registry) Raw() []RawRelease {
	out := make([]RawRelease, 0, r.count)
	for rel := range r.Releases() {
		out = append(out, rel.Raw())
	}
	return out
}

// Fingerprint returns a hash of the canonical content of the snapshot.
// Snapshots built from the same record multiset have the same fingerprint,
// whatever order the records arrived in.
func (r *Registry) Fingerprint() uint64 {
	h := xxhash.New()
	for rel := range r.Releases() {
		hashRelease(h, rel)
	}
	return h.Sum64()
}

func hashRelease(h *xxhash.Digest, rel *Release) {
	_, _ = h.WriteString(rel.Name.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(rel.Version.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(rel.Links.String())
	_, _ = h.WriteString(strconv.FormatBool(rel.Yanked))
	_, _ = h.Write([]byte{0})

	for _, d := range rel.Deps {
		_, _ = h.WriteString(d.Name.String())
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(d.Package.String())
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(d.Req.String())
		_, _ = h.Write([]byte{0})
		for _, f := range d.Features.Names() {
			_, _ = h.WriteString(f)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.WriteString(d.Kind.String())
		_, _ = h.WriteString(strconv.FormatBool(d.DefaultFeatures))
		_, _ = h.WriteString(strconv.FormatBool(d.Optional))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0}) // Section separator

	for _, e := range rel.Features.Entries() {
		_, _ = h.WriteString(e.Name.String())
		_, _ = h.Write([]byte{'='})
		for _, f := range e.Implies.Names() {
			_, _ = h.WriteString(f)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0})
}
