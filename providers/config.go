package providers

import (
	"context"
	"fmt"
	"sync/atomic"

	catauthz "github.com/pthm/catauthz"
)

// AllowBlock is a JSON object whose keys are actor attributes and whose
// values are either a literal match or a list of acceptable values; "*"
// matches any non-null actor value for that key. A nil AllowBlock means the
// block is absent ("contributes nothing"); a non-nil, possibly-empty block
// is present and always contributes (allow on match, explicit deny otherwise).
type AllowBlock map[string]any

// Matches reports whether actor satisfies every key in the block.
func (b AllowBlock) Matches(actor catauthz.Actor) bool {
	for key, expected := range b {
		actual, ok := actor[key]
		if !ok || actual == nil {
			return false
		}
		if !valueMatches(expected, actual) {
			return false
		}
	}
	return true
}

func valueMatches(expected, actual any) bool {
	expectedSet := toAnySlice(expected)
	for _, e := range expectedSet {
		if s, ok := e.(string); ok && s == "*" {
			return true
		}
	}
	actualSet := toAnySlice(actual)
	for _, a := range actualSet {
		for _, e := range expectedSet {
			if fmt.Sprint(a) == fmt.Sprint(e) {
				return true
			}
		}
	}
	return false
}

func toAnySlice(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// TableConfig is the "tables.<t>" block under a database.
type TableConfig struct {
	Permissions map[string]AllowBlock `mapstructure:"permissions"`
	Allow       AllowBlock            `mapstructure:"allow"`
}

// QueryConfig is the "queries.<q>" block under a database.
type QueryConfig struct {
	Permissions map[string]AllowBlock `mapstructure:"permissions"`
	Allow       AllowBlock            `mapstructure:"allow"`
}

// DatabaseConfig is the "databases.<db>" block.
type DatabaseConfig struct {
	Permissions map[string]AllowBlock  `mapstructure:"permissions"`
	Allow       AllowBlock             `mapstructure:"allow"`
	AllowSQL    AllowBlock             `mapstructure:"allow_sql"`
	Tables      map[string]TableConfig `mapstructure:"tables"`
	Queries     map[string]QueryConfig `mapstructure:"queries"`
}

// ConfigDocument is the authorization-relevant subset of the configuration
// document a deployment ships. Unknown keys are ignored by whatever loads
// the document into this struct (see cmd/catauthz's use of viper).
type ConfigDocument struct {
	Permissions map[string]AllowBlock     `mapstructure:"permissions"`
	Databases   map[string]DatabaseConfig `mapstructure:"databases"`
}

var dbScopedAllowActions = map[string]bool{
	"view-database": true,
	"view-table":    true,
	"view-query":    true,
}

// Config translates a ConfigDocument into rule fragments, the same role
// Datasette's ConfigPermissionProcessor plays. The document is held as an
// atomically-swapped snapshot so readers never observe a partially-updated
// config.
type Config struct {
	Registry *catauthz.Registry
	doc      atomic.Pointer[ConfigDocument]
}

// NewConfig returns a Config provider holding the given initial document.
func NewConfig(registry *catauthz.Registry, doc *ConfigDocument) *Config {
	c := &Config{Registry: registry}
	c.Store(doc)
	return c
}

// Store atomically replaces the configuration snapshot.
func (c *Config) Store(doc *ConfigDocument) { c.doc.Store(doc) }

// Name implements catauthz.Provider.
func (*Config) Name() string { return "config" }

type fragAccumulator struct {
	frags []catauthz.RuleFragment
	n     int
}

func (fa *fragAccumulator) add(parent, child *string, allow bool, reason string) {
	fa.n++
	fa.frags = append(fa.frags, catauthz.RuleFragment{
		Source: "config",
		SQL:    literalFragmentSQL(parent, child, allow, reason),
	})
}

func literalFragmentSQL(parent, child *string, allow bool, reason string) string {
	allowVal := "0"
	if allow {
		allowVal = "1"
	}
	return fmt.Sprintf("SELECT %s AS parent, %s AS child, %s AS allow, %s AS reason",
		sqlTextOrNull(parent), sqlTextOrNull(child), allowVal, sqlQuote(reason))
}

func sqlTextOrNull(s *string) string {
	if s == nil {
		return "NULL"
	}
	return sqlQuote(*s)
}

func sqlQuote(s string) string {
	out := "'"
	for _, r := range s {
		if r == '\'' {
			out += "''"
		} else {
			out += string(r)
		}
	}
	return out + "'"
}

// Fragments implements catauthz.Provider.
func (c *Config) Fragments(ctx context.Context, actor catauthz.Actor, action catauthz.Action) ([]catauthz.RuleFragment, error) {
	doc := c.doc.Load()
	if doc == nil {
		return nil, nil
	}

	fa := &fragAccumulator{}
	var deniedRoot, deniedParents []string

	if block, ok := doc.Permissions[action.Name]; ok {
		if block.Matches(actor) {
			fa.add(nil, nil, true, "config permissions allow for "+action.Name)
		} else {
			fa.add(nil, nil, false, "config permissions deny for "+action.Name)
			deniedRoot = append(deniedRoot, "*")
		}
	}

	for dbName, dbCfg := range doc.Databases {
		dbName := dbName
		if block, ok := dbCfg.Permissions[action.Name]; ok {
			if block.Matches(actor) {
				fa.add(&dbName, nil, true, "config database permissions allow for "+action.Name)
			} else {
				fa.add(&dbName, nil, false, "config database permissions deny for "+action.Name)
				deniedParents = append(deniedParents, dbName)
			}
		}
		if dbCfg.Allow != nil && dbScopedAllowActions[c.canon(action.Name, "view-database", "view-table", "view-query")] {
			if dbCfg.Allow.Matches(actor) {
				fa.add(&dbName, nil, true, "config database allow")
			} else {
				fa.add(&dbName, nil, false, "config database allow block does not match")
				deniedParents = append(deniedParents, dbName)
			}
		}
		if dbCfg.AllowSQL != nil && action.Name == "execute-sql" {
			if dbCfg.AllowSQL.Matches(actor) {
				fa.add(&dbName, nil, true, "config database allow_sql")
			} else {
				fa.add(&dbName, nil, false, "config database allow_sql block does not match")
			}
		}

		for tableName, tblCfg := range dbCfg.Tables {
			tableName := tableName
			if block, ok := tblCfg.Permissions[action.Name]; ok {
				if block.Matches(actor) {
					fa.add(&dbName, &tableName, true, "config table permissions allow for "+action.Name)
				} else {
					fa.add(&dbName, &tableName, false, "config table permissions deny for "+action.Name)
				}
			}
			if tblCfg.Allow != nil && action.Name == "view-table" {
				if tblCfg.Allow.Matches(actor) {
					fa.add(&dbName, &tableName, true, "config table allow")
				} else {
					fa.add(&dbName, &tableName, false, "config table allow block does not match")
				}
			}
		}

		for queryName, qCfg := range dbCfg.Queries {
			queryName := queryName
			if block, ok := qCfg.Permissions[action.Name]; ok {
				if block.Matches(actor) {
					fa.add(&dbName, &queryName, true, "config query permissions allow for "+action.Name)
				} else {
					fa.add(&dbName, &queryName, false, "config query permissions deny for "+action.Name)
				}
			}
			if qCfg.Allow != nil && action.Name == "view-query" {
				if qCfg.Allow.Matches(actor) {
					fa.add(&dbName, &queryName, true, "config query allow")
				} else {
					fa.add(&dbName, &queryName, false, "config query allow block does not match")
				}
			}
		}
	}

	c.addRestrictionGateDenies(fa, actor, action, deniedRoot, deniedParents)

	return fa.frags, nil
}

// canon returns the first of candidates that name refers to (by full name or
// abbreviation), otherwise "" so the dbScopedAllowActions lookup misses.
func (c *Config) canon(name string, candidates ...string) string {
	for _, cand := range candidates {
		if c.Registry.Covers(name, cand) || name == cand {
			return cand
		}
	}
	return ""
}

// addRestrictionGateDenies implements config.py's _add_restriction_gate_denies:
// when a root- or parent-scope deny was emitted and the actor carries "_r"
// restrictions, emit explicit child-scope denies for every restricted child
// within the denied scope. Without this, a child-scope allow contributed by
// another source could outrank the coarser deny by specificity and
// incorrectly widen the access a restriction allowlist was meant to cap.
func (c *Config) addRestrictionGateDenies(fa *fragAccumulator, actor catauthz.Actor, action catauthz.Action, deniedRoot, deniedParents []string) {
	if len(deniedRoot) == 0 && len(deniedParents) == 0 {
		return
	}
	restrictions, ok := actor.Restrictions()
	if !ok || restrictions.IsEmpty() {
		return
	}

	rootDenied := len(deniedRoot) > 0
	deniedSet := map[string]bool{}
	for _, p := range deniedParents {
		deniedSet[p] = true
	}

	for _, pair := range restrictions.AllowedPairs(c.Registry, action.Name) {
		if rootDenied || deniedSet[pair.Parent] {
			parent, child := pair.Parent, pair.Child
			fa.add(&parent, &child, false, "restriction gate: higher-scope deny caps restricted child")
		}
	}
}
