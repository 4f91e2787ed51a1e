package domain

import "slices"

// LockfileVersion is the current lockfile format version.
const LockfileVersion = 1

// LockedPackage is one pinned release in a lockfile.
type LockedPackage struct {
	Name    InternedString `json:"name"`
	Version Version        `json:"version"`
}

// Lockfile is a recorded solution for a root: the exact releases it resolved to.
// It lets an engine be checked against a solution found by the other engine or
// recorded historically.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `json:"version"`

	// Root is the (package, version) the solution was recorded for.
	Root Root `json:"-"`

	// Packages is sorted by name, then version.
	Packages []LockedPackage `json:"packages"`
}

// Pins reports whether the lock pins the given release.
func (l Lockfile) Pins(name InternedString, v Version) bool {
	_, found := slices.BinarySearchFunc(l.Packages, LockedPackage{Name: name, Version: v}, compareLocked)
	return found
}

// IsEmpty reports whether the lock pins nothing.
func (l Lockfile) IsEmpty() bool {
	return len(l.Packages) == 0
}

// Normalize sorts and deduplicates the pinned packages.
func (l *Lockfile) Normalize() {
	slices.SortFunc(l.Packages, compareLocked)
	l.Packages = slices.Compact(l.Packages)
}

func compareLocked(a, b LockedPackage) int {
	if c := a.Name.Compare(b.Name); c != 0 {
		return c
	}
	return a.Version.Compare(b.Version)
}
