package catauthz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryWithDefaults(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(DefaultActions()...))
	return r
}

func TestParseRestrictions_Shapes(t *testing.T) {
	raw := map[string]any{
		"a": []any{"view-instance"},
		"d": map[string]any{
			"accounting": []any{"vt"},
		},
		"r": map[string]any{
			"analytics": map[string]any{
				"secret": []any{"view-table"},
			},
		},
	}
	r := ParseRestrictions(raw)
	assert.False(t, r.IsEmpty())
	assert.Equal(t, []string{"view-instance"}, r.Global)
	assert.Equal(t, []string{"vt"}, r.Database["accounting"])
	assert.Equal(t, []string{"view-table"}, r.Table["analytics"]["secret"])
}

func TestParseRestrictions_MalformedIsEmpty(t *testing.T) {
	assert.True(t, ParseRestrictions("not a map").IsEmpty())
	assert.True(t, ParseRestrictions(nil).IsEmpty())
	assert.True(t, ParseRestrictions(map[string]any{}).IsEmpty())
}

func TestRestrictions_GloballyAllowed_ByAbbrOrName(t *testing.T) {
	reg := registryWithDefaults(t)
	r := ParseRestrictions(map[string]any{"a": []any{"vt"}})
	assert.True(t, r.GloballyAllowed(reg, "view-table"))
	assert.False(t, r.GloballyAllowed(reg, "view-query"))
}

func TestRestrictions_AllowedParentsAndPairs(t *testing.T) {
	reg := registryWithDefaults(t)
	r := ParseRestrictions(map[string]any{
		"d": map[string]any{"accounting": []any{"view-table"}},
		"r": map[string]any{"analytics": map[string]any{"secret": []any{"vt"}}},
	})

	assert.Equal(t, []string{"accounting"}, r.AllowedParents(reg, "view-table"))
	assert.Empty(t, r.AllowedParents(reg, "view-query"))

	pairs := r.AllowedPairs(reg, "view-table")
	require.Len(t, pairs, 1)
	assert.Equal(t, ParentChild{Parent: "analytics", Child: "secret"}, pairs[0])
}

func TestActor_Restrictions_AbsentMeansUnrestricted(t *testing.T) {
	a := Actor{"id": "alice"}
	r, ok := a.Restrictions()
	assert.False(t, ok)
	assert.True(t, r.IsEmpty())
}

func TestActor_TypedAccessors(t *testing.T) {
	a := Actor{"id": "root", "token": "dstok", "token_expires": int64(100)}
	assert.Equal(t, "root", a.ID())
	assert.True(t, a.IsRoot())
	assert.Equal(t, "dstok", a.TokenSource())
	exp, ok := a.TokenExpires()
	assert.True(t, ok)
	assert.Equal(t, int64(100), exp)

	b := Actor{"id": "bob"}
	assert.False(t, b.IsRoot())
	_, ok = b.TokenExpires()
	assert.False(t, ok)
}
