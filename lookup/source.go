package lookup

import (
	"context"
	"iter"

	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/query"
)

// Source is a queryable collection of entities of one type. Where returns a
// filtered view without touching storage; All enumerates lazily, so no fetch
// happens until the sequence is ranged.
type Source[T any] interface {
	Where(p query.Predicate) Source[T]
	All(ctx context.Context) iter.Seq2[T, error]
}

// Limiter is implemented by sources that can cap the number of rows they
// return without enumerating the rest.
type Limiter[T any] interface {
	Limit(n int) Source[T]
}

// SliceSource is a Source over an in-memory slice. Predicates are evaluated
// with query.Eval against each item's field values.
type SliceSource[T any] struct {
	model *model.Model
	items []T
	pred  query.Predicate
	limit int
}

// NewSliceSource returns a Source over items described by m. Items may be
// structs of m's type or implement query.Record.
func NewSliceSource[T any](m *model.Model, items []T) *SliceSource[T] {
	return &SliceSource[T]{model: m, items: items}
}

// Where returns a view of s further filtered by p.
func (s *SliceSource[T]) Where(p query.Predicate) Source[T] {
	ns := *s
	if p != nil {
		if ns.pred == nil {
			ns.pred = p
		} else {
			ns.pred = query.And{Left: ns.pred, Right: p}
		}
	}
	return &ns
}

// Limit returns a view of s that yields at most n items.
func (s *SliceSource[T]) Limit(n int) Source[T] {
	ns := *s
	ns.limit = n
	return &ns
}

// All yields the matching items in slice order.
func (s *SliceSource[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		n := 0
		for i := range s.items {
			if err := ctx.Err(); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if s.pred != nil && !query.Eval(s.pred, s.record(&s.items[i])) {
				continue
			}
			if !yield(s.items[i], nil) {
				return
			}
			n++
			if s.limit > 0 && n >= s.limit {
				return
			}
		}
	}
}

func (s *SliceSource[T]) record(item *T) query.Record {
	if r, ok := any(*item).(query.Record); ok {
		return r
	}
	return query.RecordFunc(func(field string) (any, bool) {
		f, ok := s.model.Field(field)
		if !ok {
			return nil, false
		}
		v, ok := s.model.ValueOf(item, f)
		if !ok {
			return nil, false
		}
		// named kinds and pointers compare as the field's declared type
		if cv, err := model.Convert(v, f.Type); err == nil {
			return cv, true
		}
		return v, true
	})
}
