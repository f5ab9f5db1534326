package tracing

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tracewire/internal/tracing/export"
)

// Status classifies how a span's operation concluded.
type Status uint8

const (
	StatusUnset Status = iota
	StatusOK
	StatusError
)

// String renders the status for records and logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// Kind distinguishes the role a span plays at a service boundary.
type Kind uint8

const (
	KindInternal Kind = iota
	KindServer
	KindClient
)

// String renders the kind for records and logs.
func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	default:
		return "internal"
	}
}

// ErrSpanEnded reports a second End on the same span. Re-ending is a
// programming error in instrumentation code, so it is surfaced to the
// caller and logged instead of being absorbed.
var ErrSpanEnded = errors.New("tracing: span already ended")

// Span is a single timed operation within a trace. It is mutable until
// End freezes it; the frozen record is what reaches the exporter. A nil
// or noop span absorbs every call, so instrumentation code never has to
// branch on tracing health.
type Span struct {
	tracer *Tracer
	sc     SpanContext
	name   string
	kind   Kind
	start  time.Time
	noop   bool

	mu     sync.Mutex
	attrs  map[string]string
	events []export.Event
	status Status
	end    time.Time
	ended  bool
}

// Context returns the span's immutable identity.
func (s *Span) Context() SpanContext {
	if s == nil {
		return SpanContext{}
	}
	return s.sc
}

// Name returns the operation label.
func (s *Span) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// IsRecording reports whether the span still accepts mutations.
func (s *Span) IsRecording() bool {
	if s == nil || s.noop {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended
}

// Ended reports whether End has been called.
func (s *Span) Ended() bool {
	if s == nil || s.noop {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Duration returns the frozen duration, or zero while the span is open.
func (s *Span) Duration() time.Duration {
	if s == nil || s.noop {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		return 0
	}
	return s.end.Sub(s.start)
}

// SetAttribute records a key/value pair. Values are stringified scalars.
// Setting an attribute on an ended span logs a warning and does nothing.
func (s *Span) SetAttribute(key string, value any) {
	if s == nil || s.noop {
		return
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.logger.Warn("attribute set on ended span",
			zap.String("span", s.sc.SpanID.String()),
			zap.String("key", key),
		)
		return
	}
	s.attrs[key] = stringify(value)
	s.mu.Unlock()
}

// SetStatus sets the span status, last write wins. Setting status on an
// ended span logs a warning and does nothing.
func (s *Span) SetStatus(status Status) {
	if s == nil || s.noop {
		return
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.logger.Warn("status set on ended span",
			zap.String("span", s.sc.SpanID.String()),
		)
		return
	}
	s.status = status
	s.mu.Unlock()
}

// RecordError marks the span failed and stores the error class and text
// as attributes. A nil error does nothing.
func (s *Span) RecordError(err error) {
	if err == nil || s == nil || s.noop {
		return
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.logger.Warn("error recorded on ended span",
			zap.String("span", s.sc.SpanID.String()),
			zap.Error(err),
		)
		return
	}
	s.status = StatusError
	s.attrs["error.type"] = fmt.Sprintf("%T", err)
	s.attrs["error.message"] = err.Error()
	s.mu.Unlock()
}

// AddEvent appends a timestamped annotation to the span.
func (s *Span) AddEvent(name string, attrs map[string]any) {
	if s == nil || s.noop {
		return
	}
	now := s.tracer.clock.Now()
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.logger.Warn("event added to ended span",
			zap.String("span", s.sc.SpanID.String()),
			zap.String("event", name),
		)
		return
	}
	ev := export.Event{Name: name, Time: now}
	if len(attrs) > 0 {
		ev.Attrs = make(map[string]string, len(attrs))
		for k, v := range attrs {
			ev.Attrs[k] = stringify(v)
		}
	}
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// End freezes the span and hands the frozen record to the export
// pipeline exactly once. A second End returns ErrSpanEnded and does not
// re-export.
func (s *Span) End() error {
	if s == nil || s.noop {
		return nil
	}
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.logger.Error("span ended twice",
			zap.String("span", s.sc.SpanID.String()),
			zap.String("name", s.name),
		)
		return ErrSpanEnded
	}
	s.ended = true
	s.end = s.tracer.clock.Now()
	rec := s.recordLocked()
	s.mu.Unlock()

	if s.sc.IsSampled() {
		s.tracer.processor.OnEnd(rec)
	}
	return nil
}

// recordLocked builds the frozen export form. The maps and slices are
// handed over as-is: every mutator checks ended first, so nothing writes
// to them after this point.
func (s *Span) recordLocked() export.Record {
	rec := export.Record{
		TraceID:   s.sc.TraceID.String(),
		SpanID:    s.sc.SpanID.String(),
		Name:      s.name,
		Kind:      s.kind.String(),
		Service:   s.tracer.service,
		StartTime: s.start,
		EndTime:   s.end,
		Duration:  s.end.Sub(s.start),
		Status:    s.status.String(),
		Resource:  s.tracer.resource,
	}
	if s.sc.HasParent() {
		rec.ParentID = s.sc.ParentID.String()
	}
	if len(s.attrs) > 0 {
		rec.Attributes = s.attrs
	}
	if len(s.events) > 0 {
		rec.Events = s.events
	}
	return rec
}

// stringify renders a scalar attribute value as a string.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Duration:
		return x.String()
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprintf("%v", x)
	}
}
