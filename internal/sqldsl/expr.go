// Package sqldsl is a small typed SQL builder used to compose the
// permission resolution CTE from independently generated fragments. It
// models the handful of shapes the resolver actually needs (columns,
// literals, named parameters, CTEs, UNION blocks) rather than generic SQL
// syntax.
package sqldsl

import (
	"fmt"
	"strings"
)

// Expr is the interface every SQL expression type implements.
type Expr interface {
	SQL() string
}

// Param represents a named bind parameter (e.g. :actor, :implicit_deny).
// SQLite (via modernc.org/sqlite) accepts ":name" parameters bound with
// sql.Named.
type Param string

// SQL renders the parameter reference.
func (p Param) SQL() string { return ":" + string(p) }

// Reserved parameter names every fragment's Params map is checked against.
var (
	ParamActor        = Param("actor")
	ParamActorID      = Param("actor_id")
	ParamAction       = Param("action")
	ParamImplicitDeny = Param("implicit_deny")
)

// Col represents a table-qualified column reference (e.g. c.parent).
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Lit is a single-quoted string literal; embedded quotes are doubled.
type Lit string

// SQL renders the literal.
func (l Lit) SQL() string {
	return "'" + strings.ReplaceAll(string(l), "'", "''") + "'"
}

// Raw is an escape hatch for pre-rendered SQL text, such as a provider's
// fragment body.
type Raw string

// SQL renders the raw text as-is.
func (r Raw) SQL() string { return string(r) }

// Int is an integer literal.
type Int int

// SQL renders the integer.
func (i Int) SQL() string { return fmt.Sprintf("%d", i) }

// Null is the SQL NULL literal.
type Null struct{}

// SQL renders NULL.
func (Null) SQL() string { return "NULL" }

// Func is a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.SQL()
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Alias wraps an expression with an "AS name" suffix.
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string { return a.Expr.SQL() + " AS " + a.Name }

// And joins expressions with AND, parenthesising each operand.
type And []Expr

// SQL renders the conjunction. An empty And renders as the always-true "1=1".
func (a And) SQL() string {
	if len(a) == 0 {
		return "1=1"
	}
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = "(" + e.SQL() + ")"
	}
	return strings.Join(parts, " AND ")
}

// Eq renders "left = right".
type Eq struct{ Left, Right Expr }

// SQL renders the equality comparison.
func (e Eq) SQL() string { return e.Left.SQL() + " = " + e.Right.SQL() }

// IsNull renders "expr IS NULL".
type IsNull struct{ Expr Expr }

// SQL renders the null check.
func (n IsNull) SQL() string { return n.Expr.SQL() + " IS NULL" }

// Or joins two expressions with OR.
type Or struct{ Left, Right Expr }

// SQL renders the disjunction.
func (o Or) SQL() string { return "(" + o.Left.SQL() + ") OR (" + o.Right.SQL() + ")" }

// IsNotNull renders "expr IS NOT NULL".
type IsNotNull struct{ Expr Expr }

// SQL renders the non-null check.
func (n IsNotNull) SQL() string { return n.Expr.SQL() + " IS NOT NULL" }

// Desc wraps an expression for descending ORDER BY / window-ORDER BY position.
type Desc struct{ Expr Expr }

// SQL renders the expression followed by DESC.
func (d Desc) SQL() string { return d.Expr.SQL() + " DESC" }

// Concat renders SQL string concatenation via "||".
type Concat []Expr

// SQL renders the concatenation; an empty Concat renders as the empty string
// literal.
func (c Concat) SQL() string {
	if len(c) == 0 {
		return "''"
	}
	parts := make([]string, len(c))
	for i, e := range c {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, " || ")
}

// CaseWhen is a single WHEN/THEN clause of a CaseExpr.
type CaseWhen struct {
	Cond   Expr
	Result Expr
}

// CaseExpr renders a CASE expression with one or more WHEN clauses and an
// optional ELSE.
type CaseExpr struct {
	Whens []CaseWhen
	Else  Expr
}

// SQL renders the CASE expression.
func (c CaseExpr) SQL() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, w := range c.Whens {
		sb.WriteString(" WHEN ")
		sb.WriteString(w.Cond.SQL())
		sb.WriteString(" THEN ")
		sb.WriteString(w.Result.SQL())
	}
	if c.Else != nil {
		sb.WriteString(" ELSE ")
		sb.WriteString(c.Else.SQL())
	}
	sb.WriteString(" END")
	return sb.String()
}
