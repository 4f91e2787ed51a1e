package domain

import (
	"slices"
	"strings"
	"unique"
)

// DefaultFeature is the feature enabled when a dependency keeps default features on.
const DefaultFeature = "default"

// FeatureSet is an interned, sorted and deduplicated set of feature names.
// Two sets with the same members are always ==, whatever order they were built in.
type FeatureSet struct {
	h unique.Handle[string]
}

// NewFeatureSet builds a canonical FeatureSet from names in any order.
func NewFeatureSet(names ...string) FeatureSet {
	if len(names) == 0 {
		return FeatureSet{}
	}
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return FeatureSet{h: unique.Make(strings.Join(sorted, "\x00"))}
}

// Len returns the number of features in the set.
func (fs FeatureSet) Len() int {
	if fs.IsEmpty() {
		return 0
	}
	return strings.Count(fs.h.Value(), "\x00") + 1
}

// IsEmpty reports whether the set has no members.
func (fs FeatureSet) IsEmpty() bool {
	var zero unique.Handle[string]
	return fs.h == zero || fs.h.Value() == ""
}

// Names returns the members in sorted order.
func (fs FeatureSet) Names() []string {
	if fs.IsEmpty() {
		return nil
	}
	return strings.Split(fs.h.Value(), "\x00")
}

// Contains reports whether name is a member of the set.
func (fs FeatureSet) Contains(name string) bool {
	_, found := slices.BinarySearch(fs.Names(), name)
	return found
}

// FeatureEntry is one row of a release's feature table.
type FeatureEntry struct {
	Name    InternedString
	Implies FeatureSet
}

// FeatureTable maps a feature name to the features and dependency edges it implies.
// Entries are kept sorted by name so iteration and serialization are deterministic.
type FeatureTable struct {
	entries []FeatureEntry
}

// NewFeatureTable builds a table from an unordered map.
func NewFeatureTable(m map[string][]string) FeatureTable {
	if len(m) == 0 {
		return FeatureTable{}
	}
	entries := make([]FeatureEntry, 0, len(m))
	for name, implies := range m {
		entries = append(entries, FeatureEntry{
			Name:    NewInternedString(name),
			Implies: NewFeatureSet(implies...),
		})
	}
	slices.SortFunc(entries, func(a, b FeatureEntry) int { return a.Name.Compare(b.Name) })
	return FeatureTable{entries: entries}
}

// Entries returns the sorted table rows. The slice must not be modified.
func (ft FeatureTable) Entries() []FeatureEntry {
	return ft.entries
}

// Len returns the number of features declared.
func (ft FeatureTable) Len() int {
	return len(ft.entries)
}

// Lookup returns the implications of the named feature.
func (ft FeatureTable) Lookup(name string) (FeatureSet, bool) {
	i, found := slices.BinarySearchFunc(ft.entries, name, func(e FeatureEntry, n string) int {
		return strings.Compare(e.Name.String(), n)
	})
	if !found {
		return FeatureSet{}, false
	}
	return ft.entries[i].Implies, true
}

// Has reports whether the named feature is declared.
func (ft FeatureTable) Has(name string) bool {
	_, ok := ft.Lookup(name)
	return ok
}

// Map converts the table back into a plain map.
func (ft FeatureTable) Map() map[string][]string {
	if len(ft.entries) == 0 {
		return nil
	}
	m := make(map[string][]string, len(ft.entries))
	for _, e := range ft.entries {
		names := e.Implies.Names()
		if names == nil {
			names = []string{}
		}
		m[e.Name.String()] = names
	}
	return m
}

// Equal reports whether two tables declare the same features with the same implications.
func (ft FeatureTable) Equal(other FeatureTable) bool {
	return slices.Equal(ft.entries, other.entries)
}

// FeatureRef is a parsed feature table value.
type FeatureRef struct {
	// Dep is the dependency name for "dep:x", "x/y" and "x?/y" forms.
	Dep string
	// Feature is the feature name for plain and "x/y" forms.
	Feature string
	// DepOnly marks the explicit "dep:x" syntax.
	DepOnly bool
	// Weak marks "x?/y": the feature only applies if x is otherwise enabled.
	Weak bool
}

// ParseFeatureRef splits a feature table value into its parts.
func ParseFeatureRef(s string) FeatureRef {
	if dep, ok := strings.CutPrefix(s, "dep:"); ok {
		return FeatureRef{Dep: dep, DepOnly: true}
	}
	if dep, feat, ok := strings.Cut(s, "/"); ok {
		weak := strings.HasSuffix(dep, "?")
		return FeatureRef{Dep: strings.TrimSuffix(dep, "?"), Feature: feat, Weak: weak}
	}
	return FeatureRef{Feature: s}
}
