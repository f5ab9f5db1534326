/*
Package tracing provides distributed tracing for debugging production issues.

# Overview

This package implements lightweight distributed tracing to track requests
across service boundaries. It follows OpenTelemetry concepts (spans, trace
context, W3C propagation) but with a minimal implementation tailored to the
system's needs.

# Features

- W3C traceparent propagation via HTTP headers
- Span creation and management with parent-child relationships
- Automatic trace and span ID generation
- HTTP server middleware and traced client for automatic instrumentation
- Structured logging integration
- Pluggable export pipeline with buffered span collection

# Usage

	// Create tracer
	tracer := tracing.New("orders-api",
		tracing.WithLogger(logger),
		tracing.WithProcessor(processor),
	)

	// HTTP middleware
	router.Use(tracing.Middleware(tracer))

	// Traced outbound client
	client := tracing.NewClient(tracer, tracing.ClientConfig{})
	resp, err := client.Get(ctx, "https://downstream/delay/1")

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "load-order")
	defer span.End()

	span.SetAttribute("app.order_id", id)
	span.AddEvent("db.query.start", nil)

	// Or scoped, with status handled on the way out
	err := tracer.WithSpan(ctx, "load-order", func(ctx context.Context) error {
		return store.Get(ctx, id)
	})

# Trace Format

Traces propagate through the W3C traceparent header:

	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01

The four fields are version, 128-bit trace ID, 64-bit parent span ID, and
flags, all lowercase hex. Malformed headers are ignored and the request
roots a fresh trace.

# Performance

The tracing system is designed for minimal overhead:
- Spans buffer into a bounded queue and export in batches
- Export never blocks request handling; overflow drops and counts
- Attribute stringification deferred until export
- Structured logging integration
*/
package tracing
