package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestSpanLifecycle(t *testing.T) {
	clock := clockz.NewFakeClock()
	tracer, proc := newCaptureTracer(WithClock(clock))

	span, _ := tracer.StartSpan(context.Background(), "load-order", WithKind(KindServer))
	span.SetAttribute("http.method", "GET")
	span.SetAttribute("app.order_id", 42)
	span.SetAttribute("app.retryable", true)
	span.SetAttribute("app.upstream_ms", 12.5)
	span.SetAttribute("app.window", 250*time.Millisecond)
	clock.Advance(10 * time.Millisecond)
	span.AddEvent("db.query.start", map[string]any{"db.table": "orders"})
	span.SetStatus(StatusOK)

	assert.True(t, span.IsRecording())
	assert.False(t, span.Ended())
	assert.Zero(t, span.Duration(), "duration is zero while the span is open")

	clock.Advance(15 * time.Millisecond)
	require.NoError(t, span.End())
	assert.False(t, span.IsRecording())
	assert.True(t, span.Ended())

	records := proc.spans()
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, span.Context().TraceID.String(), rec.TraceID)
	assert.Equal(t, span.Context().SpanID.String(), rec.SpanID)
	assert.Empty(t, rec.ParentID)
	assert.Equal(t, "load-order", rec.Name)
	assert.Equal(t, "server", rec.Kind)
	assert.Equal(t, "orders-api", rec.Service)
	assert.Equal(t, "ok", rec.Status)
	assert.Equal(t, 25*time.Millisecond, rec.Duration)

	assert.Equal(t, "GET", rec.Attributes["http.method"])
	assert.Equal(t, "42", rec.Attributes["app.order_id"])
	assert.Equal(t, "true", rec.Attributes["app.retryable"])
	assert.Equal(t, "12.5", rec.Attributes["app.upstream_ms"])
	assert.Equal(t, "250ms", rec.Attributes["app.window"])

	require.Len(t, rec.Events, 1)
	assert.Equal(t, "db.query.start", rec.Events[0].Name)
	assert.Equal(t, "orders", rec.Events[0].Attrs["db.table"])
	assert.Equal(t, 10*time.Millisecond, rec.Events[0].Time.Sub(rec.StartTime))
}

func TestSpanEndTwice(t *testing.T) {
	tracer, proc := newCaptureTracer()

	span, _ := tracer.StartSpan(context.Background(), "load-order")
	require.NoError(t, span.End())

	err := span.End()
	assert.ErrorIs(t, err, ErrSpanEnded)
	assert.Len(t, proc.spans(), 1, "a re-ended span must not re-export")
}

func TestSpanMutationAfterEndIgnored(t *testing.T) {
	tracer, proc := newCaptureTracer()

	span, _ := tracer.StartSpan(context.Background(), "load-order")
	span.SetStatus(StatusOK)
	require.NoError(t, span.End())

	span.SetAttribute("late", "value")
	span.SetStatus(StatusError)
	span.AddEvent("late.event", nil)
	span.RecordError(errors.New("late failure"))

	records := proc.spans()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "ok", rec.Status)
	assert.NotContains(t, rec.Attributes, "late")
	assert.NotContains(t, rec.Attributes, "error.message")
	assert.Empty(t, rec.Events)
}

func TestSpanRecordError(t *testing.T) {
	tracer, proc := newCaptureTracer()

	span, _ := tracer.StartSpan(context.Background(), "load-order")
	span.RecordError(errors.New("order 99 not found"))
	require.NoError(t, span.End())

	records := proc.spans()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "error", rec.Status)
	assert.Equal(t, "*errors.errorString", rec.Attributes["error.type"])
	assert.Equal(t, "order 99 not found", rec.Attributes["error.message"])
}

func TestSpanRecordErrorNil(t *testing.T) {
	tracer, proc := newCaptureTracer()

	span, _ := tracer.StartSpan(context.Background(), "load-order")
	span.RecordError(nil)
	require.NoError(t, span.End())

	records := proc.spans()
	require.Len(t, records, 1)
	assert.Equal(t, "unset", records[0].Status)
}

func TestSpanStatusLastWriteWins(t *testing.T) {
	tracer, proc := newCaptureTracer()

	span, _ := tracer.StartSpan(context.Background(), "load-order")
	span.SetStatus(StatusError)
	span.SetStatus(StatusOK)
	require.NoError(t, span.End())

	records := proc.spans()
	require.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].Status)
}

func TestNilSpanAbsorbsEverything(t *testing.T) {
	var span *Span

	assert.NotPanics(t, func() {
		span.SetAttribute("key", "value")
		span.SetStatus(StatusOK)
		span.AddEvent("event", nil)
		span.RecordError(errors.New("boom"))
		assert.NoError(t, span.End())
	})
	assert.False(t, span.IsRecording())
	assert.False(t, span.Ended())
	assert.Zero(t, span.Duration())
	assert.Equal(t, SpanContext{}, span.Context())
	assert.Empty(t, span.Name())
}

func TestChildRecordCarriesParentID(t *testing.T) {
	tracer, proc := newCaptureTracer()

	root, ctx := tracer.StartSpan(context.Background(), "GET /orders/:id")
	child, _ := tracer.StartSpan(ctx, "load-order")
	require.NoError(t, child.End())
	require.NoError(t, root.End())

	records := proc.spans()
	require.Len(t, records, 2)
	assert.Equal(t, root.Context().SpanID.String(), records[0].ParentID)
	assert.Empty(t, records[1].ParentID)
}

func TestSpanConcurrentMutation(t *testing.T) {
	tracer, proc := newCaptureTracer()

	span, _ := tracer.StartSpan(context.Background(), "load-order")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				span.SetAttribute("worker", i)
				span.AddEvent("tick", nil)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	require.NoError(t, span.End())

	records := proc.spans()
	require.Len(t, records, 1)
	assert.Len(t, records[0].Events, 400)
}
