package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Root identifies the (package, version) pair a resolution starts from.
type Root struct {
	Package InternedString
	Version Version
}

// NewRoot builds a Root from plain values.
func NewRoot(pkg string, v Version) Root {
	return Root{Package: NewInternedString(pkg), Version: v}
}

// ParseRoot parses "<package>@<version>".
func ParseRoot(s string) (Root, error) {
	name, ver, ok := strings.Cut(s, "@")
	if !ok || name == "" {
		return Root{}, zerr.With(zerr.Wrap(ErrInvalidRoot, "expected <package>@<version>"), "root", s)
	}
	v, err := ParseVersion(ver)
	if err != nil {
		return Root{}, zerr.With(err, "root", s)
	}
	return NewRoot(name, v), nil
}

// String returns "<package>@<version>".
func (r Root) String() string {
	return r.Package.String() + "@" + r.Version.String()
}

// Compare orders roots by package name, then version.
func (r Root) Compare(other Root) int {
	if c := r.Package.Compare(other.Package); c != 0 {
		return c
	}
	return r.Version.Compare(other.Version)
}
