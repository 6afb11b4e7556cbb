package catauthz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_EmptyFragmentsStillTypeChecks(t *testing.T) {
	c, err := compose(nil)
	require.NoError(t, err)
	assert.Contains(t, c.rulesUnion, "WHERE 0")
	assert.False(t, c.hasRestrictions)
}

func TestCompose_ReservedParamNameRejected(t *testing.T) {
	_, err := compose([]RuleFragment{{
		Source: "custom",
		SQL:    "SELECT NULL AS parent, NULL AS child, 1 AS allow, 'x' AS reason",
		Params: map[string]any{"actor_id": "nope"},
	}})
	assert.ErrorIs(t, err, ErrReservedParam)
}

func TestCompose_CrossProviderParamCollisionRejected(t *testing.T) {
	_, err := compose([]RuleFragment{
		{Source: "provider-a", SQL: "SELECT NULL,NULL,1,'x'", Params: map[string]any{"p": 1}},
		{Source: "provider-b", SQL: "SELECT NULL,NULL,1,'y'", Params: map[string]any{"p": 2}},
	})
	assert.ErrorIs(t, err, ErrParamCollision)
}

func TestCompose_SameProviderReusingItsOwnParamNameIsFine(t *testing.T) {
	_, err := compose([]RuleFragment{
		{Source: "provider-a", SQL: "SELECT 1", Params: map[string]any{"p": 1}},
		{Source: "provider-a", SQL: "SELECT 2", Params: map[string]any{"p": 1}},
	})
	require.NoError(t, err)
}

func TestCompose_RestrictionOnlyFragmentDoesNotContributeRules(t *testing.T) {
	c, err := compose([]RuleFragment{{
		Source:         "actor-restrictions",
		RestrictionSQL: "SELECT 'db' AS parent, NULL AS child",
	}})
	require.NoError(t, err)
	assert.True(t, c.hasRestrictions)
	assert.Contains(t, c.rulesUnion, "WHERE 0")
}
