package providers

import (
	"context"

	catauthz "github.com/pthm/catauthz"
)

// ExternalFunc is the function shape an out-of-process or plugin-style
// provider implements.
type ExternalFunc func(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error)

// External adapts a user-registered function into the same fan-out slot as
// the built-in providers, so a process-local plugin is treated uniformly
// with the rest, the same way Datasette's gather_permission_sql_from_hooks
// treats plugin-hook results and built-in results alike.
type External struct {
	SourceName string
	Fn         ExternalFunc
}

// Name implements catauthz.Provider.
func (e External) Name() string { return e.SourceName }

// Fragments implements catauthz.Provider.
func (e External) Fragments(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error) {
	return e.Fn(ctx, actor, action)
}
