package lookup

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/shrek82/keyquery/model"
	"github.com/shrek82/keyquery/query"
)

// FetchOne returns the single entity whose primary key matches params, or nil
// when none does. More than one match is reported as *MultipleMatchesError.
func FetchOne[T any](ctx context.Context, src Source[T], m *model.Model, params ...KeyParam) (*T, error) {
	if m == nil {
		return nil, errNilModel
	}
	pred, err := BuildSingleKeyPredicate(m, params)
	if err != nil {
		return nil, err
	}

	filtered := src.Where(pred)
	if l, ok := filtered.(Limiter[T]); ok {
		filtered = l.Limit(2)
	}

	var found *T
	for v, err := range filtered.All(ctx) {
		if err != nil {
			return nil, err
		}
		if found != nil {
			return nil, &MultipleMatchesError{Entity: m.TableName, Predicate: query.Describe(pred)}
		}
		found = &v
	}
	return found, nil
}

// FetchMany returns the entities matching any of groups. With no groups the
// whole source is returned. The sequence is single-pass: ranging it again
// yields ErrSequenceConsumed.
func FetchMany[T any](ctx context.Context, src Source[T], m *model.Model, groups ...KeyParamGroup) (iter.Seq2[T, error], error) {
	if m == nil {
		return nil, errNilModel
	}
	pred, err := BuildMultiKeyPredicate(m, groups)
	if err != nil {
		return nil, err
	}
	if pred != nil {
		src = src.Where(pred)
	}
	return singlePass(src.All(ctx)), nil
}

// FetchManyByKey is FetchMany for single-column keys: each param is its own
// group.
func FetchManyByKey[T any](ctx context.Context, src Source[T], m *model.Model, params ...KeyParam) (iter.Seq2[T, error], error) {
	return FetchMany(ctx, src, m, Groups(params...)...)
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

var errNilModel = fmt.Errorf("%w: nil model", model.ErrInvalidModel)

func singlePass[T any](seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	var used atomic.Bool
	return func(yield func(T, error) bool) {
		if used.Swap(true) {
			var zero T
			yield(zero, ErrSequenceConsumed)
			return
		}
		for v, err := range seq {
			if !yield(v, err) {
				return
			}
		}
	}
}
