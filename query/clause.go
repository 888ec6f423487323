package query

import (
	"strings"
)

// Compile translates p into a SQL condition with "?" placeholders and the
// matching arguments, in placeholder order. quote wraps column names; a nil
// quote leaves them unchanged.
func Compile(p Predicate, quote func(string) string) (string, []any) {
	if quote == nil {
		quote = func(s string) string { return s }
	}
	var (
		sb   strings.Builder
		args []any
	)
	compile(&sb, &args, p, quote)
	return sb.String(), args
}

func compile(sb *strings.Builder, args *[]any, p Predicate, quote func(string) string) {
	switch n := p.(type) {
	case Equals:
		column := n.Column
		if column == "" {
			column = n.Field
		}
		if n.Value == nil {
			sb.WriteString(quote(column))
			sb.WriteString(" IS NULL")
			return
		}
		sb.WriteString(quote(column))
		sb.WriteString(" = ?")
		*args = append(*args, n.Value)
	case And:
		sb.WriteString("(")
		compile(sb, args, n.Left, quote)
		sb.WriteString(" AND ")
		compile(sb, args, n.Right, quote)
		sb.WriteString(")")
	case Or:
		sb.WriteString("(")
		compile(sb, args, n.Left, quote)
		sb.WriteString(" OR ")
		compile(sb, args, n.Right, quote)
		sb.WriteString(")")
	case Const:
		if n {
			sb.WriteString("1 = 1")
		} else {
			sb.WriteString("1 = 0")
		}
	}
}
