package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/telemetry"
)

// ─────────────────────────────────────────────────────────────────────────────
// Recording tracer
// ─────────────────────────────────────────────────────────────────────────────

type recordedSpan struct {
	noop.Span
	name   string
	cfg    trace.SpanConfig
	ended  bool
	status codes.Code
	errs   []error
}

func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *recordedSpan) SetStatus(c codes.Code, _ string) { s.status = c }
func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }

type recordingTracer struct {
	noop.Tracer
	spans []*recordedSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	s := &recordedSpan{name: name, cfg: trace.NewSpanStartConfig(opts...)}
	r.spans = append(r.spans, s)
	return trace.ContextWithSpan(ctx, s), s
}

type recordingProvider struct {
	noop.TracerProvider
	t *recordingTracer
}

func (p recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer { return p.t }

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestTracer_SpanPerStatement(t *testing.T) {
	rec := &recordingTracer{}
	tr := telemetry.NewTracer(recordingProvider{t: rec}, "sqlite3")

	start := time.Now().Add(-time.Second)
	ctx := tr.StartSpan(context.Background(), "\n\t\tselect id\n\t\tFROM jobs", start)
	tr.EndSpan(ctx, nil)

	if len(rec.spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(rec.spans))
	}
	s := rec.spans[0]
	if s.name != "SELECT" || !s.ended {
		t.Fatalf("unexpected span %q ended=%v", s.name, s.ended)
	}
	if !s.cfg.Timestamp().Equal(start) {
		t.Fatalf("span not back-dated: %v", s.cfg.Timestamp())
	}
	if s.cfg.SpanKind() != trace.SpanKindClient {
		t.Fatalf("kind %v", s.cfg.SpanKind())
	}
	attrs := map[string]string{}
	for _, kv := range s.cfg.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["db.system"] != "sqlite3" || attrs["db.statement"] != "select id FROM jobs" {
		t.Fatalf("attributes %v", attrs)
	}
}

func TestTracer_RecordsErrorsButNotMisses(t *testing.T) {
	rec := &recordingTracer{}
	tr := telemetry.NewTracer(recordingProvider{t: rec}, "postgres")

	ctx := tr.StartSpan(context.Background(), "INSERT INTO jobs", time.Now())
	tr.EndSpan(ctx, errors.New("boom"))

	ctx = tr.StartSpan(context.Background(), "SELECT 1", time.Now())
	tr.EndSpan(ctx, db.ErrNotFound)

	if got := rec.spans[0]; got.status != codes.Error || len(got.errs) != 1 {
		t.Fatalf("failed statement not recorded: %+v", got)
	}
	if got := rec.spans[1]; got.status == codes.Error || len(got.errs) != 0 {
		t.Fatalf("not-found should not mark the span failed: %+v", got)
	}
}

func TestTracer_AsHook(t *testing.T) {
	rec := &recordingTracer{}
	hook := db.NewTracingHook(telemetry.NewTracer(recordingProvider{t: rec}, "pgx"))

	hook.AfterQuery(context.Background(), "UPDATE jobs SET title = $1", nil, 50*time.Millisecond, nil)
	if len(rec.spans) != 1 || rec.spans[0].name != "UPDATE" {
		t.Fatalf("hook did not produce an UPDATE span: %v", rec.spans)
	}
}

func TestMetrics_Noop(t *testing.T) {
	m, err := telemetry.NewMetrics(metricnoop.NewMeterProvider())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	hook := db.NewMetricsHook(m)
	hook.AfterQuery(context.Background(), "DELETE FROM jobs", nil, time.Millisecond, db.ErrNotFound)
	hook.AfterQuery(context.Background(), "", nil, time.Millisecond, errors.New("boom"))
}

func TestOperation(t *testing.T) {
	tests := map[string]string{
		"select 1":                 "SELECT",
		"\n  INSERT INTO jobs":     "INSERT",
		"":                         "QUERY",
		"with x as (select 1) ...": "WITH",
	}
	for in, want := range tests {
		if got := telemetry.Operation(in); got != want {
			t.Fatalf("Operation(%q) = %q, want %q", in, got, want)
		}
	}
}
