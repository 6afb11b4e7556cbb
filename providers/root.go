// Package providers holds the built-in RuleFragment sources: root-user,
// config-driven allow/permission blocks, default allow/deny, and
// actor-embedded restrictions, each modeled 1:1 on one of Datasette's
// built-in permission plugins.
package providers

import (
	"context"

	catauthz "github.com/pthm/catauthz"
)

// RootUser grants everything to the actor with id "root", when enabled,
// mirroring Datasette's root.py permission plugin.
type RootUser struct {
	// Enabled mirrors datasette.root_enabled: the process must opt in for
	// this provider to have any effect.
	Enabled bool
}

// Name implements catauthz.Provider.
func (RootUser) Name() string { return "root-user" }

// Fragments implements catauthz.Provider.
func (r RootUser) Fragments(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error) {
	if !r.Enabled || !actor.IsRoot() {
		return nil, nil
	}
	return []catauthz.RuleFragment{{
		Source: "root-user",
		SQL:    "SELECT NULL AS parent, NULL AS child, 1 AS allow, 'root user' AS reason",
	}}, nil
}
