package tracing

import "fmt"

// SpanContext is the immutable identity of a span's position in a trace:
// the trace id shared by the whole tree, the span's own id, its parent's
// id (zero for a root), and the trace flags. Values are copied freely and
// never mutated.
type SpanContext struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Flags    TraceFlags

	// Remote marks a context extracted from an inbound carrier rather
	// than created in this process.
	Remote bool
}

// IsValid reports whether the context identifies a real span: nonzero
// trace id and nonzero span id.
func (sc SpanContext) IsValid() bool {
	return !sc.TraceID.IsZero() && !sc.SpanID.IsZero()
}

// HasParent reports whether the span has a parent in this process's view
// of the trace.
func (sc SpanContext) HasParent() bool { return !sc.ParentID.IsZero() }

// IsSampled reports the sampled flag.
func (sc SpanContext) IsSampled() bool { return sc.Flags.Sampled() }

// String returns a formatted identity string for logging.
func (sc SpanContext) String() string {
	return fmt.Sprintf("[trace:%s span:%s]", sc.TraceID, sc.SpanID)
}
