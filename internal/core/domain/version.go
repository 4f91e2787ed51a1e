package domain

import (
	"strconv"
	"strings"
	"sync"
	"unique"

	"github.com/blang/semver/v4"
	"go.trai.ch/zerr"
)

// versionKey is the comparable identity of a semantic version.
type versionKey struct {
	major, minor, patch uint64
	pre                 string
	build               string
}

// expanded caches the semver form of each interned key.
var expanded sync.Map // map[unique.Handle[versionKey]]*semver.Version

// Version is an interned semantic version number.
// Equal version strings always yield the same handle and the same expanded
// value, so versions can be compared with == and used as map keys.
type Version struct {
	h  unique.Handle[versionKey]
	sv *semver.Version
}

// ParseVersion parses a strict semantic version ("1.2.3", "1.0.0-beta.1+meta").
func ParseVersion(s string) (Version, error) {
	sv, err := semver.Parse(strings.TrimSpace(s))
	if err != nil {
		return Version{}, zerr.With(zerr.Wrap(ErrInvalidVersion, err.Error()), "version", s)
	}
	return VersionOf(sv), nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for tests and constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// VersionOf interns a parsed semver value.
func VersionOf(sv semver.Version) Version {
	pre := make([]string, len(sv.Pre))
	for i, p := range sv.Pre {
		pre[i] = p.String()
	}
	h := unique.Make(versionKey{
		major: sv.Major,
		minor: sv.Minor,
		patch: sv.Patch,
		pre:   strings.Join(pre, "."),
		build: strings.Join(sv.Build, "."),
	})
	if cached, ok := expanded.Load(h); ok {
		return Version{h: h, sv: cached.(*semver.Version)}
	}
	own := sv
	own.Pre = append([]semver.PRVersion(nil), sv.Pre...)
	own.Build = append([]string(nil), sv.Build...)
	actual, _ := expanded.LoadOrStore(h, &own)
	return Version{h: h, sv: actual.(*semver.Version)}
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	var zero unique.Handle[versionKey]
	return v.h == zero
}

// Semver returns the expanded semver value. Its slices are shared and must
// not be modified.
func (v Version) Semver() semver.Version {
	if v.sv == nil {
		return semver.Version{}
	}
	return *v.sv
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.h.Value().major }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.h.Value().minor }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.h.Value().patch }

// IsPrerelease reports whether the version carries a pre-release tag.
func (v Version) IsPrerelease() bool {
	return !v.IsZero() && v.h.Value().pre != ""
}

// Compare orders versions by semver precedence. Versions that differ only in
// build metadata compare by their textual build tag so the order stays total.
func (v Version) Compare(other Version) int {
	if v == other {
		return 0
	}
	if c := v.Semver().Compare(other.Semver()); c != 0 {
		return c
	}
	return strings.Compare(v.h.Value().build, other.h.Value().build)
}

// CompatKey returns the semver-compatibility bucket of the version:
// "1" for 1.x.y, "0.3" for 0.3.y and "0.0.4" for 0.0.4.
// At most one version per (package, bucket) may be selected in a resolution.
func (v Version) CompatKey() string {
	k := v.h.Value()
	switch {
	case k.major > 0:
		return strconv.FormatUint(k.major, 10)
	case k.minor > 0:
		return "0." + strconv.FormatUint(k.minor, 10)
	default:
		return "0.0." + strconv.FormatUint(k.patch, 10)
	}
}

// String returns the canonical semver text.
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	return v.Semver().String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
