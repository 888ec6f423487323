package middleware

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shrek82/keyquery/core"
)

// TracerName is the instrumentation name spans are created under.
const TracerName = "github.com/shrek82/keyquery"

// TracingMiddleware starts an OpenTelemetry span per SELECT and copies the
// request fields set with core.WithFields onto the span and the query logger.
type TracingMiddleware struct {
	tracer trace.Tracer
	system string
}

// NewTracing returns a TracingMiddleware using tp, or the global provider
// when tp is nil.
func NewTracing(tp trace.TracerProvider) *TracingMiddleware {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingMiddleware{tracer: tp.Tracer(TracerName)}
}

func (m *TracingMiddleware) Name() string {
	return "Tracing"
}

func (m *TracingMiddleware) Init(db *core.DB) error {
	m.system = db.Dialect().Name()
	return nil
}

func (m *TracingMiddleware) Shutdown() error {
	return nil
}

func (m *TracingMiddleware) Process(ctx context.Context, query *core.Query, next core.QueryFunc) (*core.Result, error) {
	sqlStr, _ := query.GetSelectSQL()
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", m.system),
		attribute.String("db.collection.name", query.TableName()),
		attribute.String("db.query.text", sqlStr),
	}

	fields := core.FieldsFromContext(ctx)
	for k, v := range fields {
		attrs = append(attrs, attribute.String("keyquery."+k, fmt.Sprint(v)))
	}
	if len(fields) > 0 {
		query.WithFields(fields)
	}

	ctx, span := m.tracer.Start(ctx, "keyquery.select", trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	res, err := next(ctx, query)
	if res != nil {
		span.SetAttributes(attribute.Int64("db.response.returned_rows", res.RowsAffected))
	}
	if err != nil && !errors.Is(err, core.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}
