package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCombinators(t *testing.T) {
	a, b, c := Eq("A", 1), Eq("B", 2), Eq("C", 3)

	assert.Equal(t, True, AndAll())
	assert.Equal(t, False, OrAny())
	assert.Equal(t, a, AndAll(a))
	assert.Equal(t, And{Left: And{Left: a, Right: b}, Right: c}, AndAll(a, b, c))
	assert.Equal(t, Or{Left: Or{Left: a, Right: b}, Right: c}, OrAny(a, b, c))
}

func TestString(t *testing.T) {
	p := OrAny(AndAll(Eq("Region", "EU"), Eq("Id", 1)), False)
	assert.Equal(t, `((Region == "EU" AND Id == 1) OR false)`, p.String())
	assert.Equal(t, "<none>", Describe(nil))
	assert.Equal(t, "true", Describe(True))
}

func TestFields(t *testing.T) {
	p := OrAny(AndAll(Eq("Region", "EU"), Eq("Id", 1)), AndAll(Eq("Region", "US"), Eq("Id", 9)))
	assert.Equal(t, []string{"Region", "Id"}, Fields(p))
	assert.Empty(t, Fields(nil))
	assert.Empty(t, Fields(True))
}

func TestEval(t *testing.T) {
	row := Map{"Region": "EU", "Id": 1}

	assert.True(t, Eval(Eq("Region", "EU"), row))
	assert.False(t, Eval(Eq("Region", "US"), row))
	assert.False(t, Eval(Eq("Missing", "EU"), row))
	assert.False(t, Eval(Eq("Id", int64(1)), row), "types must match")
	assert.True(t, Eval(AndAll(Eq("Region", "EU"), Eq("Id", 1)), row))
	assert.False(t, Eval(AndAll(Eq("Region", "EU"), Eq("Id", 2)), row))
	assert.True(t, Eval(OrAny(Eq("Id", 2), Eq("Id", 1)), row))
	assert.True(t, Eval(True, row))
	assert.False(t, Eval(False, row))

	fn := RecordFunc(func(field string) (any, bool) { return "x", field == "F" })
	assert.True(t, Eval(Eq("F", "x"), fn))
}

func TestEqual(t *testing.T) {
	now := time.Now()
	id := uuid.New()

	assert.True(t, Equal(now, now.In(time.UTC)))
	assert.True(t, Equal(decimal.RequireFromString("1.50"), decimal.RequireFromString("1.5")))
	assert.True(t, Equal(id, id))
	assert.False(t, Equal(id, id.String()))
	assert.True(t, Equal([]byte("a"), []byte("a")))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 0))
	assert.False(t, Equal([]int{1}, []int{1}), "uncomparable values never match")
}

func TestCompile(t *testing.T) {
	quote := func(s string) string { return "`" + s + "`" }

	t.Run("Equals", func(t *testing.T) {
		sql, args := Compile(Equals{Field: "LocalId", Column: "local_id", Value: 1}, quote)
		assert.Equal(t, "`local_id` = ?", sql)
		assert.Equal(t, []any{1}, args)
	})

	t.Run("OrOfAnds", func(t *testing.T) {
		p := OrAny(
			AndAll(Equals{Field: "R", Column: "region", Value: "EU"}, Equals{Field: "L", Column: "local_id", Value: 1}),
			AndAll(Equals{Field: "R", Column: "region", Value: "US"}, Equals{Field: "L", Column: "local_id", Value: 9}),
		)
		sql, args := Compile(p, quote)
		assert.Equal(t, "((`region` = ? AND `local_id` = ?) OR (`region` = ? AND `local_id` = ?))", sql)
		assert.Equal(t, []any{"EU", 1, "US", 9}, args)
	})

	t.Run("Constants", func(t *testing.T) {
		sql, args := Compile(True, nil)
		assert.Equal(t, "1 = 1", sql)
		assert.Empty(t, args)
		sql, _ = Compile(OrAny(False, Eq("a", 1)), nil)
		assert.Equal(t, "(1 = 0 OR a = ?)", sql)
	})

	t.Run("Null", func(t *testing.T) {
		sql, args := Compile(Eq("deleted_at", nil), nil)
		assert.Equal(t, "deleted_at IS NULL", sql)
		assert.Empty(t, args)
	})

	t.Run("ColumnFallsBackToField", func(t *testing.T) {
		sql, _ := Compile(Equals{Field: "Name", Value: "x"}, nil)
		assert.Equal(t, "Name = ?", sql)
	})
}
