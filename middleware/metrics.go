package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shrek82/keyquery/core"
)

// MetricsMiddleware records Prometheus metrics for every SELECT.
type MetricsMiddleware struct {
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	reg prometheus.Registerer
}

// NewMetrics creates the query metrics and registers them with reg, or the
// default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *MetricsMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsMiddleware{
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyquery_queries_total",
				Help: "Total number of SELECT queries",
			},
			[]string{"table", "status"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyquery_query_duration_seconds",
				Help:    "Duration of SELECT queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table"},
		),
		reg: reg,
	}
}

func (m *MetricsMiddleware) Name() string {
	return "Metrics"
}

// Init registers a gauge of open connections for db.
func (m *MetricsMiddleware) Init(db *core.DB) error {
	return m.reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "keyquery_db_open_connections",
			Help: "Number of established connections, in use and idle",
		},
		func() float64 { return float64(db.Stats().OpenConnections) },
	))
}

func (m *MetricsMiddleware) Shutdown() error {
	return nil
}

func (m *MetricsMiddleware) Process(ctx context.Context, query *core.Query, next core.QueryFunc) (*core.Result, error) {
	start := time.Now()
	res, err := next(ctx, query)

	table := query.TableName()
	m.QueryDuration.WithLabelValues(table).Observe(time.Since(start).Seconds())
	m.QueriesTotal.WithLabelValues(table, status(err)).Inc()
	return res, err
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrRecordNotFound):
		return "not_found"
	default:
		return "error"
	}
}
