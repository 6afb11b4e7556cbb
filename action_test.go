package catauthz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterDefaultActions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DefaultActions()...))

	vt, ok := r.Lookup("view-table")
	require.True(t, ok)
	assert.Equal(t, "vt", vt.Abbr)
	assert.Equal(t, 2, vt.Depth())

	vi, ok := r.Lookup("vi")
	require.True(t, ok)
	assert.Equal(t, "view-instance", vi.Name)
	assert.Equal(t, 0, vi.Depth())
}

func TestRegistry_Register_IdenticalRedefinitionIsNoop(t *testing.T) {
	r := NewRegistry()
	a := Action{Name: "view-table", Abbr: "vt", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(a))
}

func TestRegistry_Register_ConflictingNameIsDuplicateAction(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Action{Name: "view-table", Abbr: "vt", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable}))
	err := r.Register(Action{Name: "view-table", Abbr: "vt", TakesParent: true, TakesChild: false, ResourceKind: ResourceTable})
	assert.True(t, IsDuplicateActionErr(err))
}

func TestRegistry_Register_ConflictingAbbrIsDuplicateAction(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Action{Name: "view-table", Abbr: "vt", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable}))
	err := r.Register(Action{Name: "view-query", Abbr: "vt", TakesParent: true, TakesChild: true, ResourceKind: ResourceQuery})
	assert.True(t, IsDuplicateActionErr(err))
}

func TestRegistry_Register_ChildWithoutParentIsInvalid(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Action{Name: "bad", TakesParent: false, TakesChild: true})
	assert.True(t, IsInvalidActionErr(err))
}

func TestRegistry_Variants(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DefaultActions()...))

	assert.ElementsMatch(t, []string{"view-table", "vt"}, r.Variants("view-table"))
	assert.Nil(t, r.Variants("nonexistent"))
}

func TestRegistry_Covers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DefaultActions()...))

	assert.True(t, r.Covers("vt", "view-table"))
	assert.True(t, r.Covers("view-table", "view-table"))
	assert.False(t, r.Covers("vt", "view-query"))
	// An unregistered ref falls back to a literal comparison.
	assert.True(t, r.Covers("custom-action", "custom-action"))
}
