package catauthz

import "context"

// RuleFragment is a record contributed by a Provider: either a SELECT
// returning (parent, child, allow, reason) rows that feed the rules
// relation, or a RestrictionSQL SELECT returning (parent, child) rows that
// feed the restriction filter — never both: when RestrictionSQL is set, the
// composer ignores SQL.
//
// Invariants: a row with child IS NOT NULL implies parent IS NOT NULL;
// allow is 0 or 1, never NULL (omit the row instead); parameter names must
// not collide with the reserved set (actor, actor_id, action, implicit_deny).
// The composer rejects reserved and cross-provider colliding parameter
// names; it does not inspect the rows a fragment returns, so the two row
// invariants are not checked.
type RuleFragment struct {
	// Source identifies the originating provider, used for tracing and as
	// the final tie-break in ranking. If empty, the dispatcher fills it in
	// with the provider's Name().
	Source string

	// SQL is a SELECT returning exactly (parent, child, allow, reason).
	// Empty if this fragment only contributes a restriction.
	SQL string

	// Params binds named parameters referenced by SQL and/or RestrictionSQL.
	// Providers are expected to prefix names with their source to avoid
	// collisions with other providers.
	Params map[string]any

	// RestrictionSQL is a SELECT returning (parent, child); if present this
	// fragment contributes only to the restriction filter, not to decisions.
	RestrictionSQL string
}

// Candidate is a (parent, child) resource pair to be decided. Parent-scoped
// actions leave Child nil; root-scoped actions leave both nil.
type Candidate struct {
	Parent *string
	Child  *string
}

// Verdict is the resolved decision for a single (actor, action, candidate)
// triple.
type Verdict struct {
	Parent       *string
	Child        *string
	Allow        *bool
	Reason       *string
	Source       string
	Depth        int
	Action       string
	ResourcePath string
}

// Allowed reports whether the verdict resolved to an explicit allow.
func (v Verdict) Allowed() bool {
	return v.Allow != nil && *v.Allow
}

// Provider is an independent source of rule fragments. Fragments is called
// concurrently alongside other providers for a given (actor, action) query;
// returning an empty slice means "no opinion". Implementations must not
// retain actor or fragment values past the call.
type Provider interface {
	// Name identifies the provider as the default Source for fragments that
	// don't set one themselves, and appears in Verdict.Source on a win.
	Name() string

	// Fragments returns zero or more rule fragments for the given actor and
	// action. It must be safe to call concurrently with other providers'
	// Fragments calls.
	Fragments(ctx context.Context, actor Actor, action Action) ([]RuleFragment, error)
}
