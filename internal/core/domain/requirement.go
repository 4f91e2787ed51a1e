package domain

import (
	"strconv"
	"strings"
	"sync"

	"github.com/blang/semver/v4"
	"go.trai.ch/zerr"
)

// AnyRequirement is the canonical text of the requirement that accepts every
// non pre-release version. It is also the value of an omitted requirement.
const AnyRequirement = "*"

// requirements interns parsed requirements by canonical text.
var requirements sync.Map // map[string]*Requirement

// exacts interns the build-strict requirements made by ExactRequirement.
var exacts sync.Map // map[Version]*Requirement

// Requirement is a parsed, interned version requirement such as "^1.2, <1.8".
// Identical requirement text always yields the same pointer.
type Requirement struct {
	text        string
	comparators []comparator
	// build is compared as well when exact is set.
	build string
	exact bool
}

type bound struct {
	v         semver.Version
	inclusive bool
	set       bool
}

// comparator is one clause of a requirement, lowered to an interval.
type comparator struct {
	lo, hi bound
	// pre is set when the clause names a full version with a pre-release tag;
	// pre-release candidates only match when they share its major.minor.patch.
	pre *semver.Version
}

// ParseRequirement parses a cargo-style requirement: comma separated clauses with
// an optional operator (^ ~ = > >= < <=, default ^), partial versions and
// wildcards. The empty string is equivalent to "*".
func ParseRequirement(s string) (*Requirement, error) {
	canonical, err := canonicalRequirement(s)
	if err != nil {
		return nil, err
	}
	if r, ok := requirements.Load(canonical); ok {
		return r.(*Requirement), nil
	}

	r := &Requirement{text: canonical}
	if canonical != AnyRequirement {
		for _, clause := range strings.Split(canonical, ", ") {
			c, err := parseComparator(clause)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(ErrInvalidRequirement, err.Error()), "requirement", s)
			}
			r.comparators = append(r.comparators, c)
		}
	}

	actual, _ := requirements.LoadOrStore(canonical, r)
	return actual.(*Requirement), nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
func MustParseRequirement(s string) *Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// ExactRequirement returns the requirement "=v" that only matches v itself.
// Unlike a parsed "=" clause it does not ignore build metadata, so sibling
// releases such as 1.0.0+x and 1.0.0+y stay apart.
func ExactRequirement(v Version) *Requirement {
	if r, ok := exacts.Load(v); ok {
		return r.(*Requirement)
	}
	parsed := MustParseRequirement("=" + v.String())
	r := &Requirement{
		text:        parsed.text,
		comparators: parsed.comparators,
		build:       v.h.Value().build,
		exact:       true,
	}
	actual, _ := exacts.LoadOrStore(v, r)
	return actual.(*Requirement)
}

// String returns the canonical requirement text.
func (r *Requirement) String() string {
	if r == nil {
		return AnyRequirement
	}
	return r.text
}

// IsAny reports whether the requirement accepts every release version.
func (r *Requirement) IsAny() bool {
	return r == nil || r.text == AnyRequirement
}

// Matches reports whether v satisfies every clause of the requirement.
func (r *Requirement) Matches(v Version) bool {
	if r != nil && r.exact && v.h.Value().build != r.build {
		return false
	}
	return r.matches(v.Semver())
}

// MatchesSemver is Matches for an already expanded semver value.
func (r *Requirement) MatchesSemver(v semver.Version) bool {
	if r != nil && r.exact && strings.Join(v.Build, ".") != r.build {
		return false
	}
	return r.matches(v)
}

func (r *Requirement) matches(v semver.Version) bool {
	if r == nil || len(r.comparators) == 0 {
		return len(v.Pre) == 0
	}
	for _, c := range r.comparators {
		if !c.matches(v) {
			return false
		}
	}
	if len(v.Pre) == 0 {
		return true
	}
	for _, c := range r.comparators {
		if c.pre != nil && c.pre.Major == v.Major && c.pre.Minor == v.Minor && c.pre.Patch == v.Patch {
			return true
		}
	}
	return false
}

func (c comparator) matches(v semver.Version) bool {
	if c.lo.set {
		cmp := v.Compare(c.lo.v)
		if cmp < 0 || (cmp == 0 && !c.lo.inclusive) {
			return false
		}
	}
	if c.hi.set {
		cmp := v.Compare(c.hi.v)
		if cmp > 0 || (cmp == 0 && !c.hi.inclusive) {
			return false
		}
	}
	return true
}

func canonicalRequirement(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == AnyRequirement {
		return AnyRequirement, nil
	}
	clauses := strings.Split(s, ",")
	for i, clause := range clauses {
		clause = strings.Join(strings.Fields(clause), "")
		if clause == "" {
			return "", zerr.With(zerr.Wrap(ErrInvalidRequirement, "empty clause"), "requirement", s)
		}
		clauses[i] = clause
	}
	return strings.Join(clauses, ", "), nil
}

// partial is a version with optional minor and patch components.
type partial struct {
	major        uint64
	minor, patch *uint64
	pre          []semver.PRVersion
	wildcard     bool
}

func parseComparator(clause string) (comparator, error) {
	op := "^"
	for _, candidate := range []string{">=", "<=", "=", ">", "<", "~", "^"} {
		if strings.HasPrefix(clause, candidate) {
			op = candidate
			clause = clause[len(candidate):]
			break
		}
	}

	p, err := parsePartial(clause)
	if err != nil {
		return comparator{}, err
	}
	if p.wildcard {
		if op != "^" && op != "=" {
			return comparator{}, zerr.With(zerr.New("wildcard with operator"), "clause", clause)
		}
		return lowerExact(p), nil
	}

	var c comparator
	full := p.minor != nil && p.patch != nil
	if full && len(p.pre) > 0 {
		v := p.version()
		c.pre = &v
	}

	switch op {
	case "=":
		c2 := lowerExact(p)
		c2.pre = c.pre
		return c2, nil
	case ">":
		switch {
		case full:
			c.lo = bound{v: p.version(), set: true}
		case p.minor != nil:
			c.lo = bound{v: semver.Version{Major: p.major, Minor: *p.minor + 1}, inclusive: true, set: true}
		default:
			c.lo = bound{v: semver.Version{Major: p.major + 1}, inclusive: true, set: true}
		}
	case ">=":
		c.lo = bound{v: p.version(), inclusive: true, set: true}
	case "<":
		c.hi = bound{v: p.version(), set: true}
	case "<=":
		switch {
		case full:
			c.hi = bound{v: p.version(), inclusive: true, set: true}
		case p.minor != nil:
			c.hi = bound{v: semver.Version{Major: p.major, Minor: *p.minor + 1}, set: true}
		default:
			c.hi = bound{v: semver.Version{Major: p.major + 1}, set: true}
		}
	case "~":
		c.lo = bound{v: p.version(), inclusive: true, set: true}
		if p.minor != nil {
			c.hi = bound{v: semver.Version{Major: p.major, Minor: *p.minor + 1}, set: true}
		} else {
			c.hi = bound{v: semver.Version{Major: p.major + 1}, set: true}
		}
	default: // caret
		c.lo = bound{v: p.version(), inclusive: true, set: true}
		switch {
		case p.major > 0 || p.minor == nil:
			c.hi = bound{v: semver.Version{Major: p.major + 1}, set: true}
		case *p.minor > 0 || p.patch == nil:
			c.hi = bound{v: semver.Version{Minor: *p.minor + 1}, set: true}
		default:
			c.hi = bound{v: semver.Version{Patch: *p.patch + 1}, set: true}
		}
	}
	return c, nil
}

// lowerExact handles "=I.J.K", "=I.J", "=I" and the wildcard forms "I.*", "I.J.*".
func lowerExact(p partial) comparator {
	var c comparator
	switch {
	case p.minor != nil && p.patch != nil:
		v := p.version()
		c.lo = bound{v: v, inclusive: true, set: true}
		c.hi = bound{v: v, inclusive: true, set: true}
	case p.minor != nil:
		c.lo = bound{v: semver.Version{Major: p.major, Minor: *p.minor}, inclusive: true, set: true}
		c.hi = bound{v: semver.Version{Major: p.major, Minor: *p.minor + 1}, set: true}
	default:
		c.lo = bound{v: semver.Version{Major: p.major}, inclusive: true, set: true}
		c.hi = bound{v: semver.Version{Major: p.major + 1}, set: true}
	}
	return c
}

func (p partial) version() semver.Version {
	v := semver.Version{Major: p.major, Pre: p.pre}
	if p.minor != nil {
		v.Minor = *p.minor
	}
	if p.patch != nil {
		v.Patch = *p.patch
	}
	return v
}

func parsePartial(s string) (partial, error) {
	var p partial
	if s == "" {
		return p, zerr.New("missing version")
	}
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	var preText string
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s, preText = s[:i], s[i+1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return p, zerr.With(zerr.New("too many version components"), "version", s)
	}
	if isWildcard(parts[0]) {
		return p, zerr.With(zerr.New("wildcard major"), "version", s)
	}

	nums := make([]*uint64, 3)
	for i, part := range parts {
		if isWildcard(part) {
			for _, rest := range parts[i+1:] {
				if !isWildcard(rest) {
					return p, zerr.With(zerr.New("component after wildcard"), "version", s)
				}
			}
			p.wildcard = true
			break
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return p, zerr.With(zerr.Wrap(err, "invalid version component"), "component", part)
		}
		nums[i] = &n
	}
	p.major = *nums[0]
	p.minor, p.patch = nums[1], nums[2]

	if preText != "" {
		if p.patch == nil {
			return p, zerr.With(zerr.New("pre-release on partial version"), "version", s)
		}
		for _, part := range strings.Split(preText, ".") {
			pr, err := semver.NewPRVersion(part)
			if err != nil {
				return p, zerr.With(zerr.Wrap(err, "invalid pre-release"), "pre", preText)
			}
			p.pre = append(p.pre, pr)
		}
	}
	return p, nil
}

func isWildcard(s string) bool {
	return s == "*" || s == "x" || s == "X"
}
