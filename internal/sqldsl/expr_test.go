package sqldsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCol_SQL(t *testing.T) {
	assert.Equal(t, "c.parent", Col{Table: "c", Column: "parent"}.SQL())
	assert.Equal(t, "parent", Col{Column: "parent"}.SQL())
}

func TestLit_SQL_EscapesQuotes(t *testing.T) {
	assert.Equal(t, "'it''s fine'", Lit("it's fine").SQL())
}

func TestFunc_SQL(t *testing.T) {
	got := Func{Name: "COALESCE", Args: []Expr{Col{Column: "allow"}, Int(0)}}.SQL()
	assert.Equal(t, "COALESCE(allow, 0)", got)
}

func TestAnd_SQL(t *testing.T) {
	assert.Equal(t, "1=1", And{}.SQL())
	got := And{Eq{Left: Col{Column: "a"}, Right: Int(1)}, IsNull{Expr: Col{Column: "b"}}}.SQL()
	assert.Equal(t, "(a = 1) AND (b IS NULL)", got)
}

func TestAlias_SQL(t *testing.T) {
	assert.Equal(t, "c.parent AS parent", Alias{Expr: Col{Table: "c", Column: "parent"}, Name: "parent"}.SQL())
}
