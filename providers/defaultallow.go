package providers

import (
	"context"

	catauthz "github.com/pthm/catauthz"
)

// DefaultAllowActions is the built-in allow set, mirroring Datasette's
// DEFAULT_ALLOW_ACTIONS frozenset.
var DefaultAllowActions = map[string]bool{
	"view-instance":          true,
	"view-database":          true,
	"view-database-download": true,
	"view-table":             true,
	"view-query":             true,
	"execute-sql":            true,
}

// DefaultAllow contributes a blanket allow for the actions in
// DefaultAllowActions. Grounded on defaults.py's default_action_permissions_sql.
type DefaultAllow struct {
	// DefaultDeny mirrors datasette.default_deny: when true this provider
	// is suppressed entirely.
	DefaultDeny bool
}

// Name implements catauthz.Provider.
func (DefaultAllow) Name() string { return "default-allow" }

// Fragments implements catauthz.Provider.
func (d DefaultAllow) Fragments(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error) {
	if d.DefaultDeny || !DefaultAllowActions[action.Name] {
		return nil, nil
	}
	return []catauthz.RuleFragment{{
		Source: "default-allow",
		SQL:    "SELECT NULL AS parent, NULL AS child, 1 AS allow, 'default allow for " + action.Name + "' AS reason",
	}}, nil
}

// DefaultDenySQL emits a recoverable deny for execute-sql when SQL execution
// is disabled by default. Grounded on defaults.py's default_allow_sql_check;
// more specific allow fragments (e.g. a database-level allow_sql) win by
// depth, since this fragment matches at root scope (depth 0).
type DefaultDenySQL struct {
	// AllowSQL mirrors the default_allow_sql setting.
	AllowSQL bool
}

// Name implements catauthz.Provider.
func (DefaultDenySQL) Name() string { return "default-deny-sql" }

// Fragments implements catauthz.Provider.
func (d DefaultDenySQL) Fragments(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error) {
	if action.Name != "execute-sql" || d.AllowSQL {
		return nil, nil
	}
	return []catauthz.RuleFragment{{
		Source: "default-deny-sql",
		SQL:    "SELECT NULL AS parent, NULL AS child, 0 AS allow, 'default_allow_sql is false' AS reason",
	}}, nil
}
