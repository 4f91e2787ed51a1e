package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/crosscheck/internal/core/domain"
)

func TestFeatureSet_Canonical(t *testing.T) {
	a := domain.NewFeatureSet("std", "alloc", "std")
	b := domain.NewFeatureSet("alloc", "std")

	assert.Equal(t, a, b)
	assert.Equal(t, []string{"alloc", "std"}, a.Names())
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Contains("std"))
	assert.False(t, a.Contains("serde"))
}

func TestFeatureSet_Empty(t *testing.T) {
	var zero domain.FeatureSet
	assert.True(t, zero.IsEmpty())
	assert.Zero(t, zero.Len())
	assert.Nil(t, zero.Names())
	assert.Equal(t, zero, domain.NewFeatureSet())
}

func TestFeatureTable(t *testing.T) {
	ft := domain.NewFeatureTable(map[string][]string{
		"std":     {"alloc", "serde?/std"},
		"alloc":   nil,
		"default": {"std"},
	})

	assert.Equal(t, 3, ft.Len())
	names := make([]string, 0, ft.Len())
	for _, e := range ft.Entries() {
		names = append(names, e.Name.String())
	}
	assert.Equal(t, []string{"alloc", "default", "std"}, names)

	implies, ok := ft.Lookup("std")
	assert.True(t, ok)
	assert.Equal(t, []string{"alloc", "serde?/std"}, implies.Names())
	assert.False(t, ft.Has("nightly"))

	assert.Equal(t, map[string][]string{
		"std":     {"alloc", "serde?/std"},
		"alloc":   {},
		"default": {"std"},
	}, ft.Map())
	assert.True(t, ft.Equal(domain.NewFeatureTable(ft.Map())))
}

func TestParseFeatureRef(t *testing.T) {
	tests := map[string]domain.FeatureRef{
		"std":        {Feature: "std"},
		"dep:serde":  {Dep: "serde", DepOnly: true},
		"serde/std":  {Dep: "serde", Feature: "std"},
		"serde?/std": {Dep: "serde", Feature: "std", Weak: true},
	}
	for in, want := range tests {
		assert.Equal(t, want, domain.ParseFeatureRef(in), in)
	}
}
