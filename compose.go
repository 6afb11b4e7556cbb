package catauthz

import (
	"fmt"

	"github.com/pthm/catauthz/internal/sqldsl"
)

var reservedParams = map[string]bool{
	"actor":         true,
	"actor_id":      true,
	"action":        true,
	"implicit_deny": true,
}

// composed holds the rendered UNION ALL relations and the merged parameter
// set produced from a set of rule fragments, ready to be embedded into the
// resolution CTE by the resolver.
type composed struct {
	rulesUnion       string
	restrictionUnion string
	hasRestrictions  bool
	params           map[string]any
}

// compose partitions fragments into rule fragments (have SQL) and
// restriction fragments (have RestrictionSQL), unions each into its own
// relation body, and merges parameters while enforcing the reserved-name and
// cross-provider collision invariants.
func compose(fragments []RuleFragment) (*composed, error) {
	var ruleQueries []sqldsl.SQLer
	var restrQueries []sqldsl.SQLer
	params := map[string]any{}
	owners := map[string]string{}

	for _, f := range fragments {
		source := f.Source
		for name, value := range f.Params {
			if reservedParams[name] {
				return nil, fmt.Errorf("%w: %s used by %s", ErrReservedParam, name, source)
			}
			if owner, ok := owners[name]; ok && owner != source {
				return nil, fmt.Errorf("%w: %s (from %s and %s)", ErrParamCollision, name, owner, source)
			}
			owners[name] = source
			params[name] = value
		}

		if f.SQL != "" && f.RestrictionSQL == "" {
			wrapped := sqldsl.Sqlf(`
				SELECT parent, child, allow, reason, %s AS source
				FROM (
				%s
				) t`,
				sqldsl.Lit(source).SQL(),
				sqldsl.IndentLines(f.SQL, "  "),
			)
			ruleQueries = append(ruleQueries, sqldsl.RawQuery(wrapped))
		}
		if f.RestrictionSQL != "" {
			restrQueries = append(restrQueries, sqldsl.RawQuery(f.RestrictionSQL))
		}
	}

	c := &composed{params: params}
	c.rulesUnion = sqldsl.UnionAll(ruleQueries)
	if c.rulesUnion == "" {
		// No provider had an opinion; an empty relation still has to be a
		// valid SELECT so the rules CTE type-checks.
		c.rulesUnion = "  SELECT NULL AS parent, NULL AS child, NULL AS allow, NULL AS reason, NULL AS source WHERE 0"
	}
	if len(restrQueries) > 0 {
		c.hasRestrictions = true
		c.restrictionUnion = sqldsl.UnionAll(restrQueries)
	}
	return c, nil
}
