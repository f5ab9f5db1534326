package export

import "time"

// Record is the frozen, exportable form of a completed span. It is the
// unit every sink consumes; once built it is never mutated.
type Record struct {
	TraceID    string            `json:"trace_id"`
	SpanID     string            `json:"span_id"`
	ParentID   string            `json:"parent_span_id,omitempty"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind,omitempty"`
	Service    string            `json:"service,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time"`
	Duration   time.Duration     `json:"duration"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Events     []Event           `json:"events,omitempty"`
	Status     string            `json:"status"`
	Resource   map[string]string `json:"resource,omitempty"`
}

// Event is a timestamped annotation recorded on a span before it ended.
type Event struct {
	Name  string            `json:"name"`
	Time  time.Time         `json:"time"`
	Attrs map[string]string `json:"attributes,omitempty"`
}
