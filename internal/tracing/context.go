package tracing

import "context"

// spanKey carries the current span through a logical flow. Contexts are
// immutable, so concurrent flows can never observe each other's span and
// a spawned goroutine inherits its parent flow's span as its initial
// value.
type spanKey struct{}

// ContextWithSpan returns a context with span as the current span.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanKey{}, span)
}

// SpanFromContext returns the current span for this flow, if any.
func SpanFromContext(ctx context.Context) (*Span, bool) {
	span, ok := ctx.Value(spanKey{}).(*Span)
	if !ok || span == nil || span.noop {
		return nil, false
	}
	return span, true
}

// SpanContextFromContext returns the identity of the current span.
func SpanContextFromContext(ctx context.Context) (SpanContext, bool) {
	if span, ok := SpanFromContext(ctx); ok {
		return span.Context(), true
	}
	return SpanContext{}, false
}
