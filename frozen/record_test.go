package frozen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveshilobod/lithify"
)

func buildEvent(t *testing.T, mode lithify.Mutability) *Record {
	t.Helper()
	r := NewRecord("Event", mode, "name", "tags")
	require.NoError(t, r.Set("name", "deploy"))
	require.NoError(t, r.Set("tags", []string{"a", "b"}))
	return r
}

func TestRecordModes(t *testing.T) {
	t.Run("MutableStaysAssignable", func(t *testing.T) {
		r := buildEvent(t, lithify.Mutable).Seal()
		assert.False(t, r.Sealed())
		assert.NoError(t, r.Set("name", "renamed"))

		// Containers are untouched in mutable mode.
		v, _ := r.Get("tags")
		assert.IsType(t, []string{}, v)
	})
	t.Run("FrozenRejectsReassignment", func(t *testing.T) {
		r := buildEvent(t, lithify.Frozen).Seal()
		err := r.Set("name", "renamed")
		require.Error(t, err)
		assert.True(t, IsFieldFrozen(err))
		assert.ErrorIs(t, err, ErrFrozen)

		// Shallow freeze leaves container values as-is.
		v, _ := r.Get("tags")
		assert.IsType(t, []string{}, v)
	})
	t.Run("DeepFrozenConvertsContainers", func(t *testing.T) {
		r := buildEvent(t, lithify.DeepFrozen).Seal()
		assert.True(t, r.Sealed())

		v, ok := r.Get("tags")
		require.True(t, ok)
		list, ok := v.(*List)
		require.True(t, ok)
		assert.True(t, list.Equal(ListOf("a", "b")))

		err := r.Set("name", "renamed")
		require.Error(t, err)
		assert.True(t, IsFieldFrozen(err))
		assert.False(t, IsContainerFrozen(err))
	})
}

func TestRecordHashEqual(t *testing.T) {
	a := buildEvent(t, lithify.DeepFrozen).Seal()
	b := buildEvent(t, lithify.DeepFrozen).Seal()

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotZero(t, a.Hash())

	c := NewRecord("Event", lithify.DeepFrozen, "name", "tags")
	require.NoError(t, c.Set("name", "other"))
	c.Seal()
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestRecordSetMembership(t *testing.T) {
	a := buildEvent(t, lithify.DeepFrozen).Seal()
	b := buildEvent(t, lithify.DeepFrozen).Seal()

	set := SetOf(a, b)
	assert.Equal(t, 1, set.Len(), "equal records must not duplicate")
	assert.True(t, set.Contains(a))
	assert.True(t, set.Contains(b))
}

func TestRecordDynamicFields(t *testing.T) {
	r := NewRecord("Event", lithify.DeepFrozen, "name").
		WithDynamicFields(regexp.MustCompile(`^x_[a-z]+$`))

	require.NoError(t, r.Set("name", "deploy"))
	require.NoError(t, r.Set("x_trace", []string{"t1"}))
	assert.Error(t, r.Set("unknown", 1))

	r.Seal()

	// Dynamic fields join the freeze pass and the hash.
	v, ok := r.Get("x_trace")
	require.True(t, ok)
	assert.IsType(t, &List{}, v)
	assert.Equal(t, []string{"name", "x_trace"}, r.Fields())

	other := NewRecord("Event", lithify.DeepFrozen, "name").
		WithDynamicFields(regexp.MustCompile(`^x_[a-z]+$`))
	require.NoError(t, other.Set("name", "deploy"))
	assert.False(t, r.Equal(other.Seal()))
}

func TestRecordUndeclaredField(t *testing.T) {
	r := NewRecord("Event", lithify.Mutable, "name")
	err := r.Set("bogus", 1)
	require.Error(t, err)
	assert.False(t, IsFieldFrozen(err))
	assert.False(t, IsContainerFrozen(err))
}
