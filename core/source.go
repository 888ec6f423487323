package core

import (
	"context"
	"iter"

	"github.com/shrek82/keyquery/lookup"
	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/query"
)

// Source is a lookup.Source over a SQL table. Predicates are compiled into
// the WHERE clause; nothing is sent to the database until All is ranged.
// Each range runs one SELECT through the middleware chain and yields the
// buffered rows.
type Source[T any] struct {
	db    *DB
	exec  Executor
	model *model.Model
	pred  query.Predicate
	order []string
	limit int
}

var (
	_ lookup.Source[struct{}]  = (*Source[struct{}])(nil)
	_ lookup.Limiter[struct{}] = (*Source[struct{}])(nil)
)

// From returns a Source of T rows stored in m's table. A nil m is derived
// from T's struct tags when the source is ranged.
func From[T any](db *DB, m *model.Model) *Source[T] {
	return &Source[T]{db: db, exec: db.pool, model: m}
}

// FromTx is From bound to a transaction.
func FromTx[T any](tx *Tx, m *model.Model) *Source[T] {
	return &Source[T]{db: tx.db, exec: tx, model: m}
}

// Model returns the metadata rows are scanned with, resolving it from T
// when From was given none.
func (s *Source[T]) Model() (*model.Model, error) {
	if s.model != nil {
		return s.model, nil
	}
	var zero T
	return model.GetModel(&zero)
}

// Where returns a view of s further filtered by p.
func (s *Source[T]) Where(p query.Predicate) lookup.Source[T] {
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

// Limit returns a view of s that selects at most n rows.
func (s *Source[T]) Limit(n int) lookup.Source[T] {
	ns := *s
	ns.limit = n
	return &ns
}

// OrderBy returns a view of s sorted by columns.
func (s *Source[T]) OrderBy(columns ...string) *Source[T] {
	ns := *s
	ns.order = append(append([]string(nil), s.order...), columns...)
	return &ns
}

// SQL returns the SELECT statement All would run.
func (s *Source[T]) SQL() (string, []any, error) {
	q, err := s.query(context.Background())
	if err != nil {
		return "", nil, err
	}
	defer q.release()
	sqlStr, args := q.GetSelectSQL()
	return sqlStr, args, nil
}

func (s *Source[T]) query(ctx context.Context) (*Query, error) {
	m, err := s.Model()
	if err != nil {
		return nil, err
	}
	q := s.db.newQuery(s.exec).Model(m).WherePredicate(s.pred).WithContext(ctx)
	if len(s.order) > 0 {
		q.OrderBy(s.order...)
	}
	if s.limit > 0 {
		q.Limit(s.limit)
	}
	return q, nil
}

// All runs the SELECT and yields the rows in database order.
func (s *Source[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		q, err := s.query(ctx)
		if err != nil {
			yield(zero, err)
			return
		}

		var items []T
		if err := q.Find(&items); err != nil {
			yield(zero, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
