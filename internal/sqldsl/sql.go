package sqldsl

import (
	"fmt"
	"strings"
)

// Sqlf formats SQL with automatic dedenting and blank-line removal, so the
// shape of the statement stays visible in the format string at the call site.
func Sqlf(format string, args ...any) string {
	s := fmt.Sprintf(format, args...)
	lines := strings.Split(s, "\n")

	minIndent := 1 << 30
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if indent := len(line) - len(trimmed); indent < minIndent {
			minIndent = indent
		}
	}

	var result []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) >= minIndent {
			result = append(result, line[minIndent:])
		} else {
			result = append(result, strings.TrimLeft(line, " \t"))
		}
	}
	return strings.Join(result, "\n")
}

// SQLer is implemented by anything that can render itself as SQL text; both
// SelectStmt and Raw fragment bodies satisfy it.
type SQLer interface {
	SQL() string
}

// RawQuery wraps a pre-rendered SQL string (a provider's fragment body) so
// it can sit alongside SelectStmt wherever a SQLer is expected.
type RawQuery string

// SQL renders the raw query text.
func (r RawQuery) SQL() string { return string(r) }

// JoinClause represents a single JOIN in a SelectStmt.
type JoinClause struct {
	Type  string // "INNER", "LEFT", ...
	Table string
	Alias string
	On    Expr
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	table := j.Table
	if j.Alias != "" {
		table += " " + j.Alias
	}
	keyword := j.Type + " JOIN"
	if j.On == nil {
		return keyword + " " + table
	}
	return keyword + " " + table + " ON " + j.On.SQL()
}

// SelectStmt is a single SELECT statement.
type SelectStmt struct {
	Distinct    bool
	ColumnExprs []Expr
	From        string
	Alias       string
	Joins       []JoinClause
	Where       Expr
	OrderBy     string
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL() string {
	var distinct string
	if s.Distinct {
		distinct = "DISTINCT "
	}
	cols := make([]string, len(s.ColumnExprs))
	for i, c := range s.ColumnExprs {
		cols[i] = c.SQL()
	}
	parts := []string{"SELECT " + distinct + strings.Join(cols, ", ")}
	if s.From != "" {
		from := "FROM " + s.From
		if s.Alias != "" {
			from += " " + s.Alias
		}
		parts = append(parts, from)
	}
	for _, j := range s.Joins {
		parts = append(parts, j.SQL())
	}
	if s.Where != nil {
		parts = append(parts, "WHERE "+s.Where.SQL())
	}
	if s.OrderBy != "" {
		parts = append(parts, "ORDER BY "+s.OrderBy)
	}
	return strings.Join(parts, "\n")
}

// IndentLines prefixes every line of input with indent.
func IndentLines(input, indent string) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(input), "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}

// UnionAll renders a list of SQLers joined with UNION ALL, each indented for
// readability inside a surrounding CTE.
func UnionAll(queries []SQLer) string {
	if len(queries) == 0 {
		return ""
	}
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = IndentLines(q.SQL(), "  ")
	}
	return strings.Join(parts, "\n  UNION ALL\n")
}
