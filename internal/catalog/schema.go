// Package catalog is the embedded, read-only candidate backend the resolver
// queries for (parent, child) rows. It owns the catalog_databases and
// catalog_tables tables and the connection pool the composed resolution CTE
// runs against, backed by a real SQL engine rather than an in-memory
// stand-in.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	catauthz "github.com/pthm/catauthz"
	_ "modernc.org/sqlite"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS catalog_databases (
	database_name TEXT PRIMARY KEY,
	path TEXT,
	is_memory INTEGER,
	schema_version INTEGER
);
CREATE TABLE IF NOT EXISTS catalog_tables (
	database_name TEXT,
	table_name TEXT,
	rootpage INTEGER,
	sql TEXT,
	PRIMARY KEY (database_name, table_name)
);
`

// Store is the embedded SQLite-backed catalog. Open it once per process (or
// once per test) and share it; *sql.DB is already safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dsn and applies the catalog
// schema. Use ":memory:" for tests.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", dsn, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying pool for callers (e.g. fixtures) that need to
// seed or inspect catalog rows directly.
func (s *Store) DB() *sql.DB { return s.db }

// CandidateSQL returns the SELECT fragment for the given resource kind. The
// query resource kind has no catalog table ("provided via config only"); it
// renders an always-empty set, matching the original QueryResource.resources_sql
// TODO stub.
func (s *Store) CandidateSQL(kind catauthz.ResourceKind) string {
	switch kind {
	case catauthz.ResourceInstance:
		return "SELECT NULL AS parent, NULL AS child"
	case catauthz.ResourceDatabase:
		return "SELECT database_name AS parent, NULL AS child FROM catalog_databases"
	case catauthz.ResourceTable:
		return "SELECT database_name AS parent, table_name AS child FROM catalog_tables"
	case catauthz.ResourceQuery:
		return "SELECT NULL AS parent, NULL AS child WHERE 0"
	default:
		return "SELECT NULL AS parent, NULL AS child WHERE 0"
	}
}

// QueryContext runs query with args against the catalog connection pool,
// context-aware so cancellation aborts the statement.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// ExecContext runs a non-SELECT statement (used by fixtures to seed rows).
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}
