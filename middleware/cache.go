package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shrek82/keyquery/core"
)

const cacheKeyPrefix = "keyquery:cache:"

// cacheKey identifies a SELECT by its table, statement and arguments. Each
// argument is written with its type, so "1" and 1 produce different keys.
func cacheKey(q *core.Query) string {
	sqlStr, args := q.GetSelectSQL()
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s:%s:[", cacheKeyPrefix, q.TableName(), sqlStr)
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		if t, ok := arg.(time.Time); ok {
			fmt.Fprintf(&b, "time.Time(%s)", t.UTC().Format(time.RFC3339Nano))
			continue
		}
		fmt.Fprintf(&b, "%T(%v)", arg, arg)
	}
	b.WriteByte(']')
	return b.String()
}

// cacheTTL reports whether the query should be cached and for how long.
// A negative TTL on the context selects def.
func cacheTTL(ctx context.Context, def time.Duration) (time.Duration, bool) {
	d, ok := core.CacheTTL(ctx)
	if !ok || d == 0 {
		return 0, false
	}
	if d < 0 {
		return def, true
	}
	return d, true
}

// restore decodes data into q.Dest. Dest is left untouched on failure.
func restore(q *core.Query, data []byte) (*core.Result, bool) {
	if q.Dest == nil {
		return nil, false
	}
	destType := reflect.TypeOf(q.Dest)
	if destType.Kind() != reflect.Ptr {
		return nil, false
	}
	temp := reflect.New(destType.Elem())
	if err := json.Unmarshal(data, temp.Interface()); err != nil {
		return nil, false
	}
	reflect.ValueOf(q.Dest).Elem().Set(temp.Elem())

	var rows int64 = 1
	if temp.Elem().Kind() == reflect.Slice {
		rows = int64(temp.Elem().Len())
	}
	return &core.Result{Data: q.Dest, RowsAffected: rows}, true
}
