package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	is1 := domain.NewInternedString("serde")
	is2 := domain.NewInternedString("serde")

	// Identical content yields the same handle.
	assert.Equal(t, is1.Value(), is2.Value())
	assert.Equal(t, is1, is2)
	assert.Equal(t, "serde", is1.String())
}

func TestInternedString_Zero(t *testing.T) {
	var zero domain.InternedString
	assert.True(t, zero.IsZero())
	assert.Empty(t, zero.String())
	assert.False(t, domain.NewInternedString("x").IsZero())
}

func TestInternedString_Compare(t *testing.T) {
	a := domain.NewInternedString("anyhow")
	b := domain.NewInternedString("bytes")
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Zero(t, a.Compare(domain.NewInternedString("anyhow")))
}

func TestInternedStringJSON(t *testing.T) {
	t.Run("Marshal and Unmarshal preserve string value", func(t *testing.T) {
		original := domain.NewInternedString("tokio")

		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.JSONEq(t, `"tokio"`, string(data))

		var unmarshaled domain.InternedString
		require.NoError(t, json.Unmarshal(data, &unmarshaled))
		assert.Equal(t, original, unmarshaled)
	})

	t.Run("Marshal and Unmarshal in struct", func(t *testing.T) {
		type TestStruct struct {
			Name domain.InternedString `json:"name"`
		}
		original := TestStruct{Name: domain.NewInternedString("rand")}

		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"rand"}`, string(data))

		var unmarshaled TestStruct
		require.NoError(t, json.Unmarshal(data, &unmarshaled))
		assert.Equal(t, original.Name.String(), unmarshaled.Name.String())
	})
}

func TestNewInternedStrings(t *testing.T) {
	t.Run("Convert slice of strings to InternedStrings", func(t *testing.T) {
		names := []string{"libc", "log", "cfg-if"}
		interned := domain.NewInternedStrings(names)
		require.Len(t, interned, len(names))
		for i, expected := range names {
			assert.Equal(t, expected, interned[i].String())
		}
	})

	t.Run("Empty slice returns empty slice", func(t *testing.T) {
		assert.Empty(t, domain.NewInternedStrings([]string{}))
	})

	t.Run("Duplicate strings share a handle", func(t *testing.T) {
		interned := domain.NewInternedStrings([]string{"log", "log"})
		assert.Equal(t, interned[0].Value(), interned[1].Value())
	})
}
