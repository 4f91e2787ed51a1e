package bridge_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/adapters/bridge"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/engine/reference"
	"go.trai.ch/crosscheck/internal/engine/solver"
)

func registry(t *testing.T, records ...domain.RawRelease) *domain.Registry {
	t.Helper()
	reg, report := domain.BuildRegistry(slices.Values(records), domain.Filter{})
	require.Empty(t, report.Errors)
	return reg
}

func sample(t *testing.T) *domain.Registry {
	return registry(t,
		domain.RawRelease{Name: "app", Version: "1.0.0", Deps: []domain.RawDependency{
			{Name: "leaf", Req: "^1.0", DefaultFeatures: true},
			{Name: "tool", Req: "^2", Kind: "dev"},
		}},
		domain.RawRelease{Name: "leaf", Version: "1.0.0"},
		domain.RawRelease{Name: "leaf", Version: "1.2.0", Features: map[string][]string{"default": {"std"}, "std": {}}},
		domain.RawRelease{Name: "leaf", Version: "2.0.0"},
		// "broken" names a feature that does not exist.
		domain.RawRelease{Name: "broken", Version: "1.0.0", Features: map[string][]string{"x": {"missing"}}},
		domain.RawRelease{Name: "broken", Version: "1.1.0"},
	)
}

func root(pkg, ver string) domain.Root {
	return domain.NewRoot(pkg, domain.MustParseVersion(ver))
}

func TestSolverSource_Query(t *testing.T) {
	src := bridge.NewSolverSource(sample(t), domain.DefaultLocator())

	all := src.Query(solver.Query{Package: "leaf"})
	require.Len(t, all, 3)
	assert.Equal(t, "leaf@1.0.0", all[0].ID())
	assert.Equal(t, "registry+https://example.com", all[0].Source)

	req := bridge.SolverRequest(root("leaf", "1.2.0"))
	exact := src.Query(solver.Query{Package: req.Package, Range: req.Range})
	require.Len(t, exact, 1)
	assert.Equal(t, map[string][]string{"default": {"std"}, "std": {}}, exact[0].Features)
	assert.True(t, req.UseDefault)

	app := src.Query(solver.Query{Package: "app"})
	require.Len(t, app, 1)
	require.Len(t, app[0].Deps, 2)
	assert.Equal(t, solver.Runtime, app[0].Deps[0].Kind)
	assert.Equal(t, solver.Development, app[0].Deps[1].Kind)

	// Translations are memoized.
	assert.Same(t, app[0], src.Query(solver.Query{Package: "app"})[0])
	assert.Empty(t, src.Query(solver.Query{Package: "absent"}))
}

func TestSolverRoundTrip(t *testing.T) {
	reg := sample(t)
	r := root("app", "1.0.0")
	sol, err := solver.Solve(context.Background(), bridge.NewSolverSource(reg, domain.DefaultLocator()), bridge.SolverRequest(r))
	require.NoError(t, err)

	res, err := bridge.FromSolver(reg, r, sol)
	require.NoError(t, err)
	lock := res.Lockfile()
	assert.True(t, lock.Pins(domain.NewInternedString("app"), domain.MustParseVersion("1.0.0")))
	assert.True(t, lock.Pins(domain.NewInternedString("leaf"), domain.MustParseVersion("1.2.0")))
	assert.Len(t, lock.Packages, 2)

	leaf := res.Lookup(domain.NewInternedString("leaf"))
	require.Len(t, leaf, 1)
	assert.Equal(t, []string{"default", "std"}, leaf[0].Features.Names())
}

func TestReferenceRegistry_ExcludesInvalidReleases(t *testing.T) {
	reg := sample(t)
	rr := bridge.NewReferenceRegistry(reg, domain.DefaultLocator())

	assert.False(t, rr.Contains(root("broken", "1.0.0")))
	assert.True(t, rr.Contains(root("broken", "1.1.0")))
	assert.Len(t, rr.Rejected(domain.NewInternedString("broken")), 1)
	assert.True(t, reg.Contains(root("broken", "1.0.0")))
}

func TestReferenceRegistry_Query(t *testing.T) {
	rr := bridge.NewReferenceRegistry(sample(t), domain.DefaultLocator())
	rootSum, err := rr.RootSummary(root("leaf", "1.0.0"))
	require.NoError(t, err)
	require.Len(t, rootSum.Deps, 1)
	dep := rootSum.Deps[0]

	var exact, alternatives []string
	require.NoError(t, rr.Query(&dep, reference.Exact, func(s *reference.Summary) {
		exact = append(exact, s.ID.String())
	}))
	require.NoError(t, rr.Query(&dep, reference.Alternatives, func(s *reference.Summary) {
		alternatives = append(alternatives, s.ID.String())
	}))
	assert.Equal(t, []string{"leaf v1.0.0"}, exact)
	assert.Len(t, alternatives, 3)
	assert.Equal(t, "path+file:///crosscheck/root", rootSum.ID.Source.URL)
}

func TestReferenceRoundTrip(t *testing.T) {
	reg := sample(t)
	r := root("app", "1.0.0")
	rr := bridge.NewReferenceRegistry(reg, domain.DefaultLocator())
	rootSum, err := rr.RootSummary(r)
	require.NoError(t, err)

	resolved, err := reference.Resolve(context.Background(), rr, rootSum)
	require.NoError(t, err)

	res, err := bridge.FromReference(reg, r, resolved)
	require.NoError(t, err)
	assert.Len(t, res.Selected, 2, "synthetic root is dropped")
	assert.Equal(t, "app", res.Selected[0].Release.Name.String())
	assert.Equal(t, "1.2.0", res.Selected[1].Release.Version.String())
}

func TestPin(t *testing.T) {
	reg := sample(t)
	r := root("app", "1.0.0")
	lock := domain.Lockfile{
		Version: domain.LockfileVersion,
		Root:    r,
		Packages: []domain.LockedPackage{
			{Name: domain.NewInternedString("app"), Version: domain.MustParseVersion("1.0.0")},
			{Name: domain.NewInternedString("leaf"), Version: domain.MustParseVersion("1.0.0")},
		},
	}
	pin := bridge.Pin(lock)

	sol, err := solver.Solve(context.Background(),
		pin.Solver(bridge.NewSolverSource(reg, domain.DefaultLocator())), bridge.SolverRequest(r))
	require.NoError(t, err)
	res, err := bridge.FromSolver(reg, r, sol)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Lookup(domain.NewInternedString("leaf"))[0].Release.Version.String())

	rr := bridge.NewReferenceRegistry(reg, domain.DefaultLocator())
	rootSum, err := rr.RootSummary(r)
	require.NoError(t, err)
	resolved, err := reference.Resolve(context.Background(), pin.Reference(rr), rootSum)
	require.NoError(t, err)
	res, err = bridge.FromReference(reg, r, resolved)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", res.Lookup(domain.NewInternedString("leaf"))[0].Release.Version.String())
}
