package catauthz

import "fmt"

// ResourceKind ties an Action to the catalog source its candidates come from.
type ResourceKind string

const (
	ResourceInstance ResourceKind = "instance"
	ResourceDatabase ResourceKind = "database"
	ResourceTable    ResourceKind = "table"
	ResourceQuery    ResourceKind = "query"
)

// Action is a named verb that can be performed against a resource. TakesParent
// and TakesChild describe the scope it is evaluated at: (false,false) is
// root-scoped, (true,false) parent-scoped, (true,true) child-scoped.
// (false,true) has no meaning and is rejected by Register.
type Action struct {
	Name         string
	Abbr         string
	TakesParent  bool
	TakesChild   bool
	ResourceKind ResourceKind
}

// Depth returns the scope depth this action resolves at: 0 root, 1 parent, 2 child.
func (a Action) Depth() int {
	switch {
	case a.TakesChild:
		return 2
	case a.TakesParent:
		return 1
	default:
		return 0
	}
}

func (a Action) validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: action has no name", ErrInvalidAction)
	}
	if !a.TakesParent && a.TakesChild {
		return fmt.Errorf("%w: %s takes a child without a parent", ErrInvalidAction, a.Name)
	}
	return nil
}

// Registry is an append-only catalog of registered actions, looked up by
// full name or abbreviation. The zero value is ready to use.
type Registry struct {
	byName map[string]Action
	byAbbr map[string]Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Action{}, byAbbr: map[string]Action{}}
}

// Register adds a batch of actions. Re-registering a name or abbreviation
// with an incompatible definition fails with ErrDuplicateAction; an
// identical re-registration is a no-op.
func (r *Registry) Register(actions ...Action) error {
	for _, a := range actions {
		if err := a.validate(); err != nil {
			return err
		}
		if existing, ok := r.byName[a.Name]; ok && existing != a {
			return fmt.Errorf("%w: %s already registered with a different definition", ErrDuplicateAction, a.Name)
		}
		if a.Abbr != "" {
			if existing, ok := r.byAbbr[a.Abbr]; ok && existing.Name != a.Name {
				return fmt.Errorf("%w: abbreviation %s already claimed by %s", ErrDuplicateAction, a.Abbr, existing.Name)
			}
		}
	}
	if r.byName == nil {
		r.byName = map[string]Action{}
	}
	if r.byAbbr == nil {
		r.byAbbr = map[string]Action{}
	}
	for _, a := range actions {
		r.byName[a.Name] = a
		if a.Abbr != "" {
			r.byAbbr[a.Abbr] = a
		}
	}
	return nil
}

// Lookup resolves an action by its full name or abbreviation.
func (r *Registry) Lookup(nameOrAbbr string) (Action, bool) {
	if a, ok := r.byName[nameOrAbbr]; ok {
		return a, true
	}
	if a, ok := r.byAbbr[nameOrAbbr]; ok {
		return a, true
	}
	return Action{}, false
}

// Variants returns the set of strings ({name, abbr}) that refer to the named
// action, for comparing against restriction/config lists that may use either
// form. Returns nil if the action is not registered.
func (r *Registry) Variants(name string) []string {
	a, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	if a.Abbr == "" || a.Abbr == a.Name {
		return []string{a.Name}
	}
	return []string{a.Name, a.Abbr}
}

// Covers reports whether ref (a full name or abbreviation) refers to the
// same action as name.
func (r *Registry) Covers(ref, name string) bool {
	a, ok := r.Lookup(ref)
	if !ok {
		return ref == name
	}
	return a.Name == name
}

// DefaultActions is the starter set of actions carried over from Datasette's
// permission taxonomy, as enumerated by default_actions.py/permissions.py.
func DefaultActions() []Action {
	return []Action{
		{Name: "view-instance", Abbr: "vi", TakesParent: false, TakesChild: false, ResourceKind: ResourceInstance},
		{Name: "view-database", Abbr: "vd", TakesParent: true, TakesChild: false, ResourceKind: ResourceDatabase},
		{Name: "view-database-download", Abbr: "vdd", TakesParent: true, TakesChild: false, ResourceKind: ResourceDatabase},
		{Name: "execute-sql", Abbr: "es", TakesParent: true, TakesChild: false, ResourceKind: ResourceDatabase},
		{Name: "view-table", Abbr: "vt", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable},
		{Name: "insert-row", Abbr: "ir", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable},
		{Name: "delete-row", Abbr: "dr", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable},
		{Name: "update-row", Abbr: "ur", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable},
		{Name: "alter-table", Abbr: "at", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable},
		{Name: "drop-table", Abbr: "dt", TakesParent: true, TakesChild: true, ResourceKind: ResourceTable},
		{Name: "create-table", Abbr: "ct", TakesParent: true, TakesChild: false, ResourceKind: ResourceDatabase},
		{Name: "view-query", Abbr: "vq", TakesParent: true, TakesChild: true, ResourceKind: ResourceQuery},
		{Name: "permissions-debug", Abbr: "pd", TakesParent: false, TakesChild: false, ResourceKind: ResourceInstance},
		{Name: "debug-menu", Abbr: "dm", TakesParent: false, TakesChild: false, ResourceKind: ResourceInstance},
	}
}
