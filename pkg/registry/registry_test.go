package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_RejectsEmptyNameAndDuplicates(t *testing.T) {
	r := NewBaseRegistry[int]()

	err := r.Register("", 1)
	assert.Error(t, err)

	require.NoError(t, r.Register("a", 1))
	err = r.Register("a", 2)
	assert.Error(t, err)
}

func TestGet_ReturnsRegisteredItem(t *testing.T) {
	r := NewBaseRegistry[string]()
	require.NoError(t, r.Register("k", "v"))

	v, ok := r.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestListAndNames_ReflectAllEntries(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("a", 1))
	require.NoError(t, r.Register("b", 2))

	assert.ElementsMatch(t, []int{1, 2}, r.List())
	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Count())
}

func TestRemove_DeletesEntry(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("a", 1))

	require.NoError(t, r.Remove("a"))
	_, ok := r.Get("a")
	assert.False(t, ok)

	assert.Error(t, r.Remove("a"))
}

func TestClear_EmptiesRegistry(t *testing.T) {
	r := NewBaseRegistry[int]()
	require.NoError(t, r.Register("a", 1))
	r.Clear()
	assert.Equal(t, 0, r.Count())
}
