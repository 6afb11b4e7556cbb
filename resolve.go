package catauthz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pthm/catauthz/internal/sqldsl"
)

// Store is the minimal dependency the resolver needs from the catalog
// backend: candidate SQL per resource kind, and a way to run the composed
// resolution query. internal/catalog.Store satisfies this.
type Store interface {
	CandidateSQL(kind ResourceKind) string
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// resolver assembles and executes the resolution CTE: cands -> rules ->
// (restr) -> filtered_cands -> matched -> ranked -> winner -> final
// projection with implicit-deny fallback and resource path.
type resolver struct {
	store Store
}

func newResolver(store Store) *resolver { return &resolver{store: store} }

// resolve runs the composed query for the given action/fragments and returns
// one Verdict per candidate produced by the catalog for the action's
// resource kind.
func (r *resolver) resolve(ctx context.Context, actor Actor, action Action, frags []RuleFragment, implicitDeny bool) ([]Verdict, error) {
	c, err := compose(frags)
	if err != nil {
		return nil, err
	}

	candSQL := r.store.CandidateSQL(action.ResourceKind)
	query, args, err := buildResolutionSQL(candSQL, c, actor, action.Name, implicitDeny)
	if err != nil {
		return nil, err
	}

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("%w: %v", ErrSQLError, err)
	}
	defer rows.Close()

	verdicts, err := scanVerdicts(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("%w: %v", ErrSQLError, err)
	}
	return verdicts, nil
}

// scanVerdicts reads every row of the final resolution projection into
// Verdict values.
func scanVerdicts(rows *sql.Rows) ([]Verdict, error) {
	var verdicts []Verdict
	for rows.Next() {
		var v Verdict
		var allow sql.NullInt64
		var reason sql.NullString
		var source sql.NullString
		var depth sql.NullInt64
		var parent, child sql.NullString
		var resourcePath, actionName string
		if err := rows.Scan(&parent, &child, &allow, &reason, &source, &depth, &actionName, &resourcePath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSQLError, err)
		}
		if parent.Valid {
			p := parent.String
			v.Parent = &p
		}
		if child.Valid {
			ch := child.String
			v.Child = &ch
		}
		if allow.Valid {
			b := allow.Int64 != 0
			v.Allow = &b
		}
		if reason.Valid {
			s := reason.String
			v.Reason = &s
		}
		if source.Valid {
			v.Source = source.String
		}
		if depth.Valid {
			v.Depth = int(depth.Int64)
		} else {
			v.Depth = -1
		}
		v.Action = actionName
		v.ResourcePath = resourcePath
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

// resolveCandidate resolves a single explicit candidate rather than the full
// catalog-derived set, used by Dispatcher.Can/Explain.
func (r *resolver) resolveCandidate(ctx context.Context, actor Actor, action Action, frags []RuleFragment, implicitDeny bool, cand Candidate) (Verdict, error) {
	c, err := compose(frags)
	if err != nil {
		return Verdict{}, err
	}

	candSQL := "SELECT :__cand_parent AS parent, :__cand_child AS child"
	query, args, err := buildResolutionSQL(candSQL, c, actor, action.Name, implicitDeny)
	if err != nil {
		return Verdict{}, err
	}
	args = append(args,
		sql.Named("__cand_parent", nullableString(cand.Parent)),
		sql.Named("__cand_child", nullableString(cand.Child)),
	)

	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() != nil {
			return Verdict{}, ErrCancelled
		}
		return Verdict{}, fmt.Errorf("%w: %v", ErrSQLError, err)
	}
	defer rows.Close()

	verdicts, err := scanVerdicts(rows)
	if err != nil {
		return Verdict{}, err
	}
	if len(verdicts) == 0 {
		return Verdict{}, fmt.Errorf("%w: no row produced for candidate", ErrSQLError)
	}
	return verdicts[0], nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// matchJoin builds the "(r.x IS NULL OR r.x = c.x) AND (...)" join predicate
// shared by filtered_cands' restriction join and matched's rules join.
func matchJoin(leftAlias, rightAlias string) sqldsl.Expr {
	col := func(table, name string) sqldsl.Col { return sqldsl.Col{Table: table, Column: name} }
	return sqldsl.And{
		sqldsl.Or{
			Left:  sqldsl.IsNull{Expr: col(rightAlias, "parent")},
			Right: sqldsl.Eq{Left: col(rightAlias, "parent"), Right: col(leftAlias, "parent")},
		},
		sqldsl.Or{
			Left:  sqldsl.IsNull{Expr: col(rightAlias, "child")},
			Right: sqldsl.Eq{Left: col(rightAlias, "child"), Right: col(leftAlias, "child")},
		},
	}
}

// buildResolutionSQL renders the full CTE and the bound parameter list.
func buildResolutionSQL(candSQL string, c *composed, actor Actor, actionName string, implicitDeny bool) (string, []any, error) {
	cCol := func(name string) sqldsl.Col { return sqldsl.Col{Table: "c", Column: name} }
	rCol := func(name string) sqldsl.Col { return sqldsl.Col{Table: "r", Column: name} }
	wCol := func(name string) sqldsl.Col { return sqldsl.Col{Table: "w", Column: name} }

	ctes := []sqldsl.CTEDef{
		{Name: "cands", Query: sqldsl.RawQuery(candSQL)},
		{Name: "rules", Query: sqldsl.RawQuery(c.rulesUnion)},
	}

	filteredCands := sqldsl.SelectStmt{
		ColumnExprs: []sqldsl.Expr{cCol("parent"), cCol("child")},
		From:        "cands",
		Alias:       "c",
	}
	if c.hasRestrictions {
		ctes = append(ctes, sqldsl.CTEDef{Name: "restr", Query: sqldsl.RawQuery(c.restrictionUnion)})
		filteredCands.Joins = []sqldsl.JoinClause{{
			Type: "INNER", Table: "restr", Alias: "r",
			On: matchJoin("c", "r"),
		}}
	}
	ctes = append(ctes, sqldsl.CTEDef{Name: "filtered_cands", Query: filteredCands})

	matched := sqldsl.SelectStmt{
		ColumnExprs: []sqldsl.Expr{
			cCol("parent"), cCol("child"),
			rCol("allow"), rCol("reason"), rCol("source"),
			sqldsl.Alias{Expr: sqldsl.CaseExpr{
				Whens: []sqldsl.CaseWhen{
					{Cond: sqldsl.IsNotNull{Expr: rCol("child")}, Result: sqldsl.Int(2)},
					{Cond: sqldsl.IsNotNull{Expr: rCol("parent")}, Result: sqldsl.Int(1)},
				},
				Else: sqldsl.Int(0),
			}, Name: "depth"},
		},
		From:  "filtered_cands",
		Alias: "c",
		Joins: []sqldsl.JoinClause{{
			Type: "INNER", Table: "rules", Alias: "r",
			On: matchJoin("c", "r"),
		}},
	}
	ctes = append(ctes, sqldsl.CTEDef{Name: "matched", Query: matched})

	tiebreak := sqldsl.CaseExpr{
		Whens: []sqldsl.CaseWhen{
			{Cond: sqldsl.Eq{Left: sqldsl.Col{Column: "allow"}, Right: sqldsl.Int(0)}, Result: sqldsl.Int(0)},
		},
		Else: sqldsl.Int(1),
	}
	orderBy := []sqldsl.Expr{sqldsl.Desc{Expr: sqldsl.Col{Column: "depth"}}, tiebreak, sqldsl.Col{Column: "source"}}
	orderParts := make([]string, len(orderBy))
	for i, e := range orderBy {
		orderParts[i] = e.SQL()
	}
	window := "ROW_NUMBER() OVER (PARTITION BY " + sqldsl.Col{Column: "parent"}.SQL() + ", " +
		sqldsl.Col{Column: "child"}.SQL() + " ORDER BY " + strings.Join(orderParts, ", ") + ")"
	ranked := sqldsl.SelectStmt{
		ColumnExprs: []sqldsl.Expr{sqldsl.Raw("*"), sqldsl.Alias{Expr: sqldsl.Raw(window), Name: "rn"}},
		From:        "matched",
	}
	ctes = append(ctes, sqldsl.CTEDef{Name: "ranked", Query: ranked})

	winner := sqldsl.SelectStmt{
		ColumnExprs: []sqldsl.Expr{sqldsl.Raw("*")},
		From:        "ranked",
		Where:       sqldsl.Eq{Left: sqldsl.Col{Column: "rn"}, Right: sqldsl.Int(1)},
	}
	ctes = append(ctes, sqldsl.CTEDef{Name: "winner", Query: winner})

	resourceExpr := sqldsl.CaseExpr{
		Whens: []sqldsl.CaseWhen{
			{Cond: sqldsl.IsNull{Expr: cCol("parent")}, Result: sqldsl.Lit("/")},
			{Cond: sqldsl.IsNull{Expr: cCol("child")}, Result: sqldsl.Concat{sqldsl.Lit("/"), cCol("parent")}},
		},
		Else: sqldsl.Concat{sqldsl.Lit("/"), cCol("parent"), sqldsl.Lit("/"), cCol("child")},
	}
	final := sqldsl.SelectStmt{
		ColumnExprs: []sqldsl.Expr{
			cCol("parent"), cCol("child"),
			sqldsl.Alias{Name: "allow", Expr: sqldsl.Func{Name: "COALESCE", Args: []sqldsl.Expr{
				wCol("allow"),
				sqldsl.CaseExpr{Whens: []sqldsl.CaseWhen{{Cond: sqldsl.ParamImplicitDeny, Result: sqldsl.Int(0)}}, Else: sqldsl.Null{}},
			}}},
			sqldsl.Alias{Name: "reason", Expr: sqldsl.Func{Name: "COALESCE", Args: []sqldsl.Expr{
				wCol("reason"),
				sqldsl.CaseExpr{Whens: []sqldsl.CaseWhen{{Cond: sqldsl.ParamImplicitDeny, Result: sqldsl.Lit("implicit deny")}}, Else: sqldsl.Null{}},
			}}},
			wCol("source"),
			sqldsl.Alias{Name: "depth", Expr: sqldsl.Func{Name: "COALESCE", Args: []sqldsl.Expr{wCol("depth"), sqldsl.Int(-1)}}},
			sqldsl.Alias{Name: "action", Expr: sqldsl.ParamAction},
			sqldsl.Alias{Name: "resource", Expr: resourceExpr},
		},
		From:  "cands",
		Alias: "c",
		Joins: []sqldsl.JoinClause{{
			Type: "LEFT", Table: "winner", Alias: "w",
			On: sqldsl.And{
				sqldsl.Or{Left: sqldsl.Eq{Left: wCol("parent"), Right: cCol("parent")}, Right: sqldsl.And{sqldsl.IsNull{Expr: wCol("parent")}, sqldsl.IsNull{Expr: cCol("parent")}}},
				sqldsl.Or{Left: sqldsl.Eq{Left: wCol("child"), Right: cCol("child")}, Right: sqldsl.And{sqldsl.IsNull{Expr: wCol("child")}, sqldsl.IsNull{Expr: cCol("child")}}},
			},
		}},
		OrderBy: cCol("parent").SQL() + ", " + cCol("child").SQL(),
	}

	stmt := sqldsl.WithCTE{CTEs: ctes, Query: final}
	query := stmt.SQL()

	actorJSON, err := json.Marshal(actor)
	if err != nil {
		return "", nil, fmt.Errorf("catauthz: encoding actor: %w", err)
	}

	args := []any{
		sql.Named(string(sqldsl.ParamActor), string(actorJSON)),
		sql.Named(string(sqldsl.ParamActorID), actor.ID()),
		sql.Named(string(sqldsl.ParamAction), actionName),
		sql.Named(string(sqldsl.ParamImplicitDeny), implicitDeny),
	}
	for name, value := range c.params {
		args = append(args, sql.Named(name, value))
	}
	return query, args, nil
}
