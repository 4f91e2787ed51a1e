package domain_test

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/core/domain"
)

func sampleRecords() []domain.RawRelease {
	return []domain.RawRelease{
		{Name: "root", Version: "1.0.0", Deps: []domain.RawDependency{{Name: "leaf", Req: "^1.0"}}},
		{Name: "leaf", Version: "1.0.0"},
		{Name: "leaf", Version: "1.1.0", Features: map[string][]string{"std": {}, "default": {"std"}}},
		{Name: "other", Version: "9.9.9", Yanked: true},
		{Name: "solana-program", Version: "1.18.0"},
		{Name: "broken", Version: "not-a-version"},
	}
}

func TestBuildRegistry(t *testing.T) {
	reg, report := domain.BuildRegistry(slices.Values(sampleRecords()), domain.Filter{})

	assert.Equal(t, 5, reg.Len())
	assert.Equal(t, 5, report.Accepted)
	require.Len(t, report.Errors, 1)
	assert.True(t, errors.Is(report.Errors[0], domain.ErrInvalidVersion))

	leaf := reg.Versions(domain.NewInternedString("leaf"))
	require.Len(t, leaf, 2)
	assert.Equal(t, "1.0.0", leaf[0].Version.String())
	assert.Equal(t, "1.1.0", leaf[1].Version.String())

	assert.True(t, reg.Contains(domain.NewRoot("root", domain.MustParseVersion("1.0.0"))))
	assert.False(t, reg.Contains(domain.NewRoot("root", domain.MustParseVersion("2.0.0"))))
}

func TestBuildRegistry_Filters(t *testing.T) {
	filter := domain.Filter{
		Package: func(name string) bool { return !strings.Contains(name, "solana") },
		Release: domain.ExcludeYanked,
	}
	reg, report := domain.BuildRegistry(slices.Values(sampleRecords()), filter)

	assert.Equal(t, 2, report.Filtered)
	assert.Empty(t, reg.Versions(domain.NewInternedString("other")))
	assert.Empty(t, reg.Versions(domain.NewInternedString("solana-program")))

	names := make([]string, 0)
	for _, n := range reg.Packages() {
		names = append(names, n.String())
	}
	assert.Equal(t, []string{"leaf", "root"}, names)
}

func TestBuildRegistry_LaterDuplicateWins(t *testing.T) {
	records := []domain.RawRelease{
		{Name: "a", Version: "1.0.0"},
		{Name: "a", Version: "1.0.0", Links: "ssl"},
	}
	reg, report := domain.BuildRegistry(slices.Values(records), domain.Filter{})

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, report.Overwritten)
	rel, ok := reg.Get(domain.NewInternedString("a"), domain.MustParseVersion("1.0.0"))
	require.True(t, ok)
	assert.Equal(t, "ssl", rel.Links.String())
}

func TestRegistry_Determinism(t *testing.T) {
	records := sampleRecords()
	want, _ := domain.BuildRegistry(slices.Values(records), domain.Filter{})

	rng := rand.New(rand.NewPCG(1, 2))
	for range 10 {
		shuffled := slices.Clone(records)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, _ := domain.BuildRegistry(slices.Values(shuffled), domain.Filter{})
		assert.Equal(t, want.Fingerprint(), got.Fingerprint())
		assert.Equal(t, want.Raw(), got.Raw())
	}
}

func TestRegistry_FingerprintChangesWithContent(t *testing.T) {
	a, _ := domain.BuildRegistry(slices.Values(sampleRecords()), domain.Filter{})
	b, _ := domain.BuildRegistry(slices.Values(sampleRecords()), domain.Filter{Release: domain.ExcludeYanked})
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestRegistry_RawRoundTrip(t *testing.T) {
	reg, _ := domain.BuildRegistry(slices.Values(sampleRecords()), domain.Filter{})
	again, report := domain.BuildRegistry(slices.Values(reg.Raw()), domain.Filter{})

	assert.Empty(t, report.Errors)
	assert.Equal(t, reg.Raw(), again.Raw())
	assert.Equal(t, reg.Fingerprint(), again.Fingerprint())
}

func TestRegistry_Roots(t *testing.T) {
	reg, _ := domain.BuildRegistry(slices.Values(sampleRecords()), domain.Filter{})

	all := reg.Roots("")
	assert.Len(t, all, reg.Len())
	assert.Equal(t, "leaf@1.0.0", all[0].String())

	leafOnly := reg.Roots("lea")
	require.Len(t, leafOnly, 2)
	assert.Equal(t, "leaf@1.1.0", leafOnly[1].String())
}

func TestRegistry_Flatten(t *testing.T) {
	reg, _ := domain.BuildRegistry(slices.Values(sampleRecords()), domain.Filter{})
	flat := reg.Flatten()
	require.Len(t, flat, reg.Len())

	// Rebuilding from a subset never touches the original.
	smaller := domain.NewRegistry(flat[1:])
	assert.Equal(t, reg.Len()-1, smaller.Len())
	assert.Equal(t, 5, reg.Len())
}
