package query

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record exposes an entity's field values to Eval.
type Record interface {
	Value(field string) (any, bool)
}

// RecordFunc adapts a function to Record.
type RecordFunc func(field string) (any, bool)

func (f RecordFunc) Value(field string) (any, bool) { return f(field) }

// Map is a Record backed by a map of field name to value.
type Map map[string]any

func (m Map) Value(field string) (any, bool) {
	v, ok := m[field]
	return v, ok
}

// Eval reports whether r satisfies p. A field r does not have never matches.
func Eval(p Predicate, r Record) bool {
	switch n := p.(type) {
	case Equals:
		v, ok := r.Value(n.Field)
		return ok && Equal(v, n.Value)
	case And:
		return Eval(n.Left, r) && Eval(n.Right, r)
	case Or:
		return Eval(n.Left, r) || Eval(n.Right, r)
	case Const:
		return bool(n)
	}
	return false
}

// Equal compares two field values. Times and decimals compare by value
// rather than representation.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case uuid.UUID:
		y, ok := b.(uuid.UUID)
		return ok && x == y
	case []byte:
		y, ok := b.([]byte)
		return ok && string(x) == string(y)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
