// Package telemetry plugs OpenTelemetry into the db hook interfaces.
// Providers come from the caller; with none configured the global no-op
// providers make both adapters free.
package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/B-Mitchell/JobRecruit/db"
)

// InstrumentationName identifies spans and instruments emitted here.
const InstrumentationName = "github.com/B-Mitchell/JobRecruit/db"

// ─────────────────────────────────────────────────────────────────────────────
// Tracing
// ─────────────────────────────────────────────────────────────────────────────

// Tracer implements db.Tracer with one client span per statement.
type Tracer struct {
	tracer trace.Tracer
	system string
}

// NewTracer returns a Tracer on tp, or on the global provider when tp is nil.
// system is recorded as db.system (the database/sql driver name).
func NewTracer(tp trace.TracerProvider, system string) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(InstrumentationName), system: system}
}

func (t *Tracer) StartSpan(ctx context.Context, query string, start time.Time) context.Context {
	op := Operation(query)
	ctx, _ = t.tracer.Start(ctx, op,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", t.system),
			attribute.String("db.operation", op),
			attribute.String("db.statement", collapse(query)),
		),
	)
	return ctx
}

func (t *Tracer) EndSpan(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil && !db.IsNotFound(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics
// ─────────────────────────────────────────────────────────────────────────────

// Metrics implements db.MetricsCollector with a duration histogram and a
// statement counter, both labelled by operation and outcome.
type Metrics struct {
	duration metric.Float64Histogram
	count    metric.Int64Counter
}

// NewMetrics creates the instruments on mp, or on the global provider when
// mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(InstrumentationName)

	duration, err := meter.Float64Histogram("db.client.duration",
		metric.WithDescription("Duration of SQL statements."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	count, err := meter.Int64Counter("db.client.statements",
		metric.WithDescription("Number of SQL statements executed."),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{duration: duration, count: count}, nil
}

func (m *Metrics) RecordQuery(ctx context.Context, query string, d time.Duration, success bool) {
	attrs := metric.WithAttributes(
		attribute.String("db.operation", Operation(query)),
		attribute.Bool("success", success),
	)
	m.duration.Record(ctx, d.Seconds(), attrs)
	m.count.Add(ctx, 1, attrs)
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

// Operation is the upper-cased leading SQL keyword, "QUERY" when empty.
func Operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}

func collapse(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 1024 {
		q = q[:1024]
	}
	return q
}

var (
	_ db.Tracer           = (*Tracer)(nil)
	_ db.MetricsCollector = (*Metrics)(nil)
)
