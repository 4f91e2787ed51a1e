package solver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blang/semver/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/engine/solver"
)

type testRange struct {
	text string
	r    semver.Range
}

func (t testRange) Contains(v semver.Version) bool { return t.r(v) }
func (t testRange) String() string                 { return t.text }

func rng(s string) solver.Range {
	return testRange{text: s, r: semver.MustParseRange(s)}
}

type memSource map[string][]*solver.Summary

func (m memSource) add(pkg, ver string, deps ...solver.Dep) *solver.Summary {
	s := &solver.Summary{Package: pkg, Version: semver.MustParse(ver), Deps: deps}
	m[pkg] = append(m[pkg], s)
	return s
}

func (m memSource) Query(q solver.Query) []*solver.Summary {
	var out []*solver.Summary
	for _, s := range m[q.Package] {
		if q.Range == nil || q.Range.Contains(s.Version) {
			out = append(out, s)
		}
	}
	return out
}

func dep(pkg, r string) solver.Dep {
	return solver.Dep{Local: pkg, Package: pkg, Range: rng(r), UseDefault: true}
}

func rootReq(pkg, ver string) solver.Request {
	return solver.Request{Package: pkg, Range: rng("=" + ver), UseDefault: true}
}

func selected(sol *solver.Solution) []string {
	out := make([]string, 0, len(sol.Packages))
	for _, p := range sol.Packages {
		out = append(out, p.Summary.ID())
	}
	return out
}

func TestSolve_PicksLatestSatisfying(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", dep("leaf", ">=1.0.0 <2.0.0"))
	src.add("leaf", "1.0.0")
	src.add("leaf", "1.1.0")
	src.add("leaf", "2.0.0")

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf@1.1.0", "root@1.0.0"}, selected(sol))
}

func TestSolve_NoSolution(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", dep("leaf", ">=2.0.0 <3.0.0"))
	src.add("leaf", "1.0.0")

	_, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, solver.ErrNoSolution))
}

func TestSolve_MissingRoot(t *testing.T) {
	_, err := solver.Solve(context.Background(), memSource{}, rootReq("ghost", "1.0.0"))
	assert.True(t, errors.Is(err, solver.ErrNoSolution))
}

func TestSolve_Backtracks(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", dep("a", ">=1.0.0"), dep("b", "=1.0.0"))
	src.add("a", "1.0.0", dep("c", ">=1.0.0 <2.0.0"))
	src.add("a", "2.0.0", dep("c", "=1.1.0"))
	src.add("b", "1.0.0", dep("c", "=1.0.0"))
	src.add("c", "1.0.0")
	src.add("c", "1.1.0")

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@1.0.0", "b@1.0.0", "c@1.0.0", "root@1.0.0"}, selected(sol))
}

func TestSolve_CompatibleBucketsCoexist(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", dep("a", "=1.0.0"), dep("c", ">=2.0.0 <3.0.0"))
	src.add("a", "1.0.0", dep("c", ">=1.0.0 <2.0.0"))
	src.add("c", "1.4.0")
	src.add("c", "2.1.0")

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@1.0.0", "c@1.4.0", "c@2.1.0", "root@1.0.0"}, selected(sol))
}

func TestSolve_Features(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", dep("lib", ">=1.0.0 <2.0.0"))
	lib := src.add("lib", "1.0.0",
		dep("log", ">=0.4.0 <0.5.0"),
		solver.Dep{Local: "serde", Package: "serde", Range: rng(">=1.0.0"), Optional: true, UseDefault: true},
		solver.Dep{Local: "rayon", Package: "rayon", Range: rng(">=1.0.0"), Optional: true},
	)
	lib.Features = map[string][]string{
		"default": {"std"},
		"std":     {"dep:serde", "log/std"},
	}
	logSum := src.add("log", "0.4.20")
	logSum.Features = map[string][]string{"std": {}}
	src.add("serde", "1.0.200")
	src.add("rayon", "1.8.0")

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lib@1.0.0", "log@0.4.20", "root@1.0.0", "serde@1.0.200"}, selected(sol))

	for _, p := range sol.Packages {
		switch p.Summary.Package {
		case "lib":
			assert.Equal(t, []string{"default", "std"}, p.Features)
		case "log":
			assert.Equal(t, []string{"std"}, p.Features)
		}
	}
}

func TestSolve_MissingFeatureRejectsCandidate(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", solver.Dep{Local: "lib", Package: "lib", Range: rng(">=1.0.0"), Features: []string{"fast"}})
	newer := src.add("lib", "2.0.0")
	newer.Features = map[string][]string{"slow": {}}
	older := src.add("lib", "1.5.0")
	older.Features = map[string][]string{"fast": {}}

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lib@1.5.0", "root@1.0.0"}, selected(sol))
}

func TestSolve_WeakDependencyFeature(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", solver.Dep{Local: "lib", Package: "lib", Range: rng(">=1.0.0"), Features: []string{"trace"}})
	lib := src.add("lib", "1.0.0",
		solver.Dep{Local: "log", Package: "log", Range: rng(">=0.4.0"), Optional: true},
	)
	lib.Features = map[string][]string{"trace": {"log?/std"}}
	src.add("log", "0.4.0")

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lib@1.0.0", "root@1.0.0"}, selected(sol))
}

func TestSolve_LinksConflict(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", dep("a", ">=1.0.0"), dep("b", ">=0.1.0"))
	src.add("a", "1.0.0").Links = "z"
	src.add("b", "1.0.0").Links = "z"
	src.add("b", "0.9.0")

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@1.0.0", "b@0.9.0", "root@1.0.0"}, selected(sol))
}

func TestSolve_IgnoresDevDependencies(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0", solver.Dep{Local: "missing", Package: "missing", Range: rng(">=1.0.0"), Kind: solver.Development})

	sol, err := solver.Solve(context.Background(), src, rootReq("root", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, []string{"root@1.0.0"}, selected(sol))
}

func TestSolve_Cancelled(t *testing.T) {
	src := memSource{}
	src.add("root", "1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := solver.Solve(ctx, src, rootReq("root", "1.0.0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, solver.ErrNoSolution))
}
