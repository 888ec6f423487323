package core

import (
	"context"
	"time"
)

// Component is the base interface for all pluggable components/middleware.
type Component interface {
	Name() string
	Init(db *DB) error
	Shutdown() error
}

// Result represents the result of a query execution.
type Result struct {
	RowsAffected int64
	Data         any // The destination (pointer to slice or struct)
	Error        error
}

// QueryFunc is the function type for the next step in the middleware chain.
type QueryFunc func(ctx context.Context, query *Query) (*Result, error)

// QueryMiddleware is the interface for query interceptors. Process wraps
// every SELECT issued by Find, First and Source.All.
type QueryMiddleware interface {
	Component
	Process(ctx context.Context, query *Query, next QueryFunc) (*Result, error)
}

type ctxKey int

const (
	cacheTTLKey ctxKey = iota
	fieldsKey
)

// WithCacheTTL marks queries run with ctx as cacheable for d. A negative d
// asks the cache for its default lifetime, zero disables caching.
func WithCacheTTL(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, cacheTTLKey, d)
}

// CacheTTL returns the duration set by WithCacheTTL.
func CacheTTL(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(cacheTTLKey).(time.Duration)
	return d, ok
}

// WithFields attaches request-scoped fields (request id, user ip, ...) to
// ctx. Middleware copies them onto the query logger and spans.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	merged := make(map[string]any, len(fields))
	for k, v := range FieldsFromContext(ctx) {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

// FieldsFromContext returns the fields set by WithFields, or nil.
func FieldsFromContext(ctx context.Context) map[string]any {
	fields, _ := ctx.Value(fieldsKey).(map[string]any)
	return fields
}

// chain wraps final with the registered middleware, first registered outermost.
func (db *DB) chain(final QueryFunc) QueryFunc {
	db.mu.RLock()
	mws := db.middlewares
	db.mu.RUnlock()

	h := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw, next := mws[i], h
		h = func(ctx context.Context, q *Query) (*Result, error) {
			return mw.Process(ctx, q, next)
		}
	}
	return h
}
