package providers

import (
	"context"
	"fmt"
	"strings"

	catauthz "github.com/pthm/catauthz"
)

// ActorRestrictions is the filter-only provider for the actor's embedded
// "_r" restrictions. It never grants anything: its fragment only has
// RestrictionSQL set, which intersects the candidate set before matching,
// mirroring Datasette's actor_restrictions_sql.
type ActorRestrictions struct {
	Registry *catauthz.Registry
}

// Name implements catauthz.Provider.
func (ActorRestrictions) Name() string { return "actor-restrictions" }

// Fragments implements catauthz.Provider.
func (p ActorRestrictions) Fragments(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error) {
	restrictions, ok := actor.Restrictions()
	if !ok || restrictions.IsEmpty() {
		return nil, nil
	}
	if restrictions.GloballyAllowed(p.Registry, action.Name) {
		return nil, nil
	}

	params := map[string]any{}
	var rows []string
	i := 0

	for _, parent := range restrictions.AllowedParents(p.Registry, action.Name) {
		pParam := fmt.Sprintf("actorrestrictions_p%d", i)
		params[pParam] = parent
		rows = append(rows, fmt.Sprintf("SELECT :%s AS parent, NULL AS child", pParam))
		i++
	}
	for _, pair := range restrictions.AllowedPairs(p.Registry, action.Name) {
		pParam := fmt.Sprintf("actorrestrictions_p%d", i)
		cParam := fmt.Sprintf("actorrestrictions_c%d", i)
		params[pParam] = pair.Parent
		params[cParam] = pair.Child
		rows = append(rows, fmt.Sprintf("SELECT :%s AS parent, :%s AS child", pParam, cParam))
		i++
	}

	restrictionSQL := "SELECT NULL AS parent, NULL AS child WHERE 0"
	if len(rows) > 0 {
		restrictionSQL = strings.Join(rows, "\nUNION ALL\n")
	}

	return []catauthz.RuleFragment{{
		Source:         "actor-restrictions",
		RestrictionSQL: restrictionSQL,
		Params:         params,
	}}, nil
}
