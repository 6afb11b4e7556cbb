package catalog

import "context"

// Database describes a catalog_databases row plus its tables, for seeding a
// Store in tests with the same kind of schema-plus-row convenience helpers
// used elsewhere for test setup.
type Database struct {
	Name   string
	Tables []string
}

// Seed inserts the given databases (and their tables) into the catalog.
// Intended for use against an in-memory Store opened with ":memory:".
func (s *Store) Seed(ctx context.Context, databases ...Database) error {
	for _, d := range databases {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO catalog_databases (database_name, path, is_memory, schema_version) VALUES (?, ?, 1, 1)`,
			d.Name, d.Name); err != nil {
			return err
		}
		for _, t := range d.Tables {
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO catalog_tables (database_name, table_name, rootpage, sql) VALUES (?, ?, 0, '')`,
				d.Name, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// NumberedTables returns prefix01..prefixNN, a convenience for seeding a
// "10 tables per database" shaped catalog in end-to-end tests.
func NumberedTables(prefix string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = tableName(prefix, i+1)
	}
	return out
}

func tableName(prefix string, n int) string {
	const digits = "0123456789"
	if n < 10 {
		return prefix + "0" + string(digits[n])
	}
	return prefix + string(digits[n/10]) + string(digits[n%10])
}
