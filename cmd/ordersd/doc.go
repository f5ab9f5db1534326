// Package main is the entry point for the traced orders service.
//
// The service demonstrates the tracewire pipeline end to end: every
// request gets a server span, store queries run in child spans, and the
// downstream fulfillment call carries the trace onward via traceparent.
//
// Architecture:
//
//	Caller → orders-api → Fulfillment service (traceparent propagated)
//	                  → Span exporter (console, collector, or none)
//
// The server provides:
//   - REST API for order lookup
//   - W3C trace context propagation in and out
//   - Prometheus metrics endpoint
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML config file (-config), overriding env vars
//   - CLI flags (override both)
//   - Defaults for development
//
// Usage:
//
//	# Environment-driven
//	./ordersd -port 8000
//
//	# With a config file
//	./ordersd -config config.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, flushing buffered spans
package main
