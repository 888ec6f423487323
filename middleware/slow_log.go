package middleware

import (
	"context"
	"time"

	"github.com/shrek82/keyquery/core"
	"github.com/shrek82/keyquery/logger"
)

// SlowLogMiddleware logs queries that take longer than the specified threshold.
type SlowLogMiddleware struct {
	Threshold time.Duration
	logger    logger.Logger
}

// NewSlowLog creates a new SlowLogMiddleware. Slow queries are written as
// warnings to the DB logger unless SetLogger picks another one.
func NewSlowLog(threshold time.Duration) *SlowLogMiddleware {
	return &SlowLogMiddleware{Threshold: threshold}
}

// SetLogger sets the destination for slow query reports.
func (m *SlowLogMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

func (m *SlowLogMiddleware) Name() string {
	return "SlowLog"
}

func (m *SlowLogMiddleware) Init(db *core.DB) error {
	if m.logger == nil {
		m.logger = db.Logger()
	}
	return nil
}

func (m *SlowLogMiddleware) Shutdown() error {
	return nil
}

func (m *SlowLogMiddleware) Process(ctx context.Context, query *core.Query, next core.QueryFunc) (*core.Result, error) {
	start := time.Now()
	res, err := next(ctx, query)
	duration := time.Since(start)

	if duration <= m.Threshold || m.logger == nil {
		return res, err
	}

	sql, args := query.LastSQL, query.LastArgs
	if sql == "" {
		sql, args = query.GetSelectSQL()
	}
	var rows int64
	if res != nil {
		rows = res.RowsAffected
	}

	l := m.logger.WithFields(map[string]any{"table": query.TableName()})
	if fields := core.FieldsFromContext(ctx); len(fields) > 0 {
		l = l.WithFields(fields)
	}
	l.Warn("slow sql duration=%v | sql=%s | args=%v | rows=%d | err=%v", duration, sql, args, rows, err)
	return res, err
}
