// Package keyquery looks up entities by primary key. Keys are resolved
// against the entity's field metadata and coerced to the field types before
// any query runs; the database sees a single WHERE clause.
package keyquery

import (
	"context"
	"iter"

	"github.com/shrek82/keyquery/core"
	"github.com/shrek82/keyquery/lookup"
	"github.com/shrek82/keyquery/model"
)

// Re-export core types and functions
type DB = core.DB
type Query = core.Query
type Options = core.Options

var Open = core.Open

// Re-export lookup types
type KeyParam = lookup.KeyParam
type KeyParamGroup = lookup.KeyParamGroup

var (
	Key    = lookup.Key
	Group  = lookup.Group
	Groups = lookup.Groups
)

// GetItemByKey returns the T whose key fields equal params, or nil when none
// does. T's metadata comes from its struct tags.
func GetItemByKey[T any](ctx context.Context, db *DB, params ...KeyParam) (*T, error) {
	src, m, err := source[T](db)
	if err != nil {
		return nil, err
	}
	return lookup.FetchOne(ctx, src, m, params...)
}

// GetItemsByKeyList returns the Ts matching any of groups, each group
// listing the key fields of one entity. With no groups every row is
// returned.
func GetItemsByKeyList[T any](ctx context.Context, db *DB, groups ...KeyParamGroup) (iter.Seq2[T, error], error) {
	src, m, err := source[T](db)
	if err != nil {
		return nil, err
	}
	return lookup.FetchMany(ctx, src, m, groups...)
}

func source[T any](db *DB) (*core.Source[T], *model.Model, error) {
	src := core.From[T](db, nil)
	m, err := src.Model()
	if err != nil {
		return nil, nil, err
	}
	return src, m, nil
}
