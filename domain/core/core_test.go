package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		require.False(t, id.IsEmpty())
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestHasher_Deterministic(t *testing.T) {
	a := NewHasher().Text("ctrl").Float(1.5).Int(42).Sum()
	b := NewHasher().Text("ctrl").Float(1.5).Int(42).Sum()
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64)
	assert.Len(t, a.Short(), 12)
}

func TestHasher_LengthPrefixPreventsCollisions(t *testing.T) {
	a := NewHasher().Text("ab").Text("c").Sum()
	b := NewHasher().Text("a").Text("bc").Sum()
	assert.NotEqual(t, a, b)
}

func TestIsDataError(t *testing.T) {
	assert.True(t, IsDataError(fmt.Errorf("%w: retention", ErrMissingColumn)))
	assert.True(t, IsDataError(ErrEmptyGroup))
	assert.False(t, IsDataError(ErrNoValidIterations))
}
