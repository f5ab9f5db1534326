package tracing

import (
	"fmt"
	"net/http"
)

// Propagation uses the W3C trace context layout: one "traceparent"
// header of the form <version>-<trace-id>-<parent-id>-<flags>, all
// lowercase hex, version fixed at 00.
const (
	// TraceParentHeader is the carrier header name.
	TraceParentHeader = "traceparent"

	traceParentVersion = "00"
	traceParentLength  = 55
)

// ParseError reports a malformed traceparent value and which field broke.
// Extraction recovers from it by treating the request as having no
// incoming context; it never aborts request handling.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tracing: malformed traceparent %s %q", e.Field, e.Value)
}

// FormatTraceParent encodes sc in traceparent form.
func FormatTraceParent(sc SpanContext) string {
	return fmt.Sprintf("%s-%s-%s-%s", traceParentVersion, sc.TraceID, sc.SpanID, sc.Flags)
}

// ParseTraceParent decodes a traceparent value strictly: exact length,
// separators at fixed offsets, lowercase hex only, version 00, nonzero
// ids. Ambiguous or truncated input is rejected rather than guessed at.
// The decoded context is marked Remote; its SpanID is the caller's span
// id, which becomes the parent of the span the receiver starts.
func ParseTraceParent(s string) (SpanContext, error) {
	if len(s) != traceParentLength {
		return SpanContext{}, &ParseError{Field: "length", Value: s}
	}
	if s[2] != '-' || s[35] != '-' || s[52] != '-' {
		return SpanContext{}, &ParseError{Field: "separators", Value: s}
	}
	if s[:2] != traceParentVersion {
		return SpanContext{}, &ParseError{Field: "version", Value: s[:2]}
	}

	traceID, err := TraceIDFromHex(s[3:35])
	if err != nil || traceID.IsZero() {
		return SpanContext{}, &ParseError{Field: "trace-id", Value: s[3:35]}
	}
	spanID, err := SpanIDFromHex(s[36:52])
	if err != nil || spanID.IsZero() {
		return SpanContext{}, &ParseError{Field: "parent-id", Value: s[36:52]}
	}

	var flagByte [1]byte
	if err := decodeLowerHex(flagByte[:], s[53:55]); err != nil {
		return SpanContext{}, &ParseError{Field: "flags", Value: s[53:55]}
	}

	return SpanContext{
		TraceID: traceID,
		SpanID:  spanID,
		Flags:   TraceFlags(flagByte[0]),
		Remote:  true,
	}, nil
}

// Inject writes sc as the traceparent header, overwriting any existing
// value. Invalid contexts are not written.
func Inject(sc SpanContext, header http.Header) {
	if !sc.IsValid() {
		return
	}
	header.Set(TraceParentHeader, FormatTraceParent(sc))
}

// Extract reads the traceparent header from the carrier. Absent or
// malformed input yields no context, so the receiver roots a new trace.
func Extract(header http.Header) (SpanContext, bool) {
	value := header.Get(TraceParentHeader)
	if value == "" {
		return SpanContext{}, false
	}
	sc, err := ParseTraceParent(value)
	if err != nil {
		return SpanContext{}, false
	}
	return sc, true
}
