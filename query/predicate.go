// Package query defines the predicate value used to filter entity sources.
//
// A Predicate is a closed sum type: Equals, And, Or and Const. It can be
// evaluated against an in-memory Record with Eval, or compiled into a
// parameterised SQL WHERE fragment with Compile.
package query

import (
	"fmt"
	"strings"
)

// Predicate is a boolean test over one entity. Only types in this package
// implement it.
type Predicate interface {
	fmt.Stringer
	predicateNode()
}

// Equals tests entity.Field == Value. Column is the storage column used when
// the predicate is compiled to SQL.
type Equals struct {
	Field  string
	Column string
	Value  any
}

// And is true when both sides are true.
type And struct {
	Left, Right Predicate
}

// Or is true when either side is true.
type Or struct {
	Left, Right Predicate
}

// Const is a predicate with a fixed outcome.
type Const bool

const (
	// True matches every entity.
	True Const = true
	// False matches no entity.
	False Const = false
)

func (Equals) predicateNode() {}
func (And) predicateNode()    {}
func (Or) predicateNode()     {}
func (Const) predicateNode()  {}

// Eq builds an equality test on a field whose column has the same name.
func Eq(field string, value any) Equals {
	return Equals{Field: field, Column: field, Value: value}
}

// AndAll conjoins preds left to right. With no arguments it returns True.
func AndAll(preds ...Predicate) Predicate {
	var out Predicate
	for _, p := range preds {
		if out == nil {
			out = p
			continue
		}
		out = And{Left: out, Right: p}
	}
	if out == nil {
		return True
	}
	return out
}

// OrAny disjoins preds left to right. With no arguments it returns False.
func OrAny(preds ...Predicate) Predicate {
	var out Predicate
	for _, p := range preds {
		if out == nil {
			out = p
			continue
		}
		out = Or{Left: out, Right: p}
	}
	if out == nil {
		return False
	}
	return out
}

func (p Equals) String() string {
	return fmt.Sprintf("%s == %s", p.Field, formatValue(p.Value))
}

func (p And) String() string {
	return "(" + p.Left.String() + " AND " + p.Right.String() + ")"
}

func (p Or) String() string {
	return "(" + p.Left.String() + " OR " + p.Right.String() + ")"
}

func (p Const) String() string {
	if p {
		return "true"
	}
	return "false"
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return fmt.Sprintf("%q", x.String())
	}
	return fmt.Sprint(v)
}

// Fields returns the distinct field names p tests, in first-seen order.
func Fields(p Predicate) []string {
	var (
		names []string
		seen  = make(map[string]bool)
		walk  func(Predicate)
	)
	walk = func(p Predicate) {
		switch n := p.(type) {
		case Equals:
			if !seen[n.Field] {
				seen[n.Field] = true
				names = append(names, n.Field)
			}
		case And:
			walk(n.Left)
			walk(n.Right)
		case Or:
			walk(n.Left)
			walk(n.Right)
		}
	}
	if p != nil {
		walk(p)
	}
	return names
}

// Describe renders p for logs and error messages; a nil predicate is "<none>".
func Describe(p Predicate) string {
	if p == nil {
		return "<none>"
	}
	return strings.TrimSpace(p.String())
}
