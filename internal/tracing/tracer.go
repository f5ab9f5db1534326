package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tracewire/internal/tracing/export"
)

// Tracer creates spans and owns the machinery they share: the service
// identity, resource attributes, the clock, the id generator, and the
// export pipeline completed spans flow into.
type Tracer struct {
	service   string
	resource  map[string]string
	logger    *zap.Logger
	clock     clockz.Clock
	gen       *generator
	processor export.Processor
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithLogger sets the logger for tracing faults and lifecycle messages.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracer) { t.logger = logger }
}

// WithClock substitutes the time source, for deterministic tests.
func WithClock(clock clockz.Clock) Option {
	return func(t *Tracer) { t.clock = clock }
}

// WithProcessor sets the pipeline ended spans are handed to.
func WithProcessor(p export.Processor) Option {
	return func(t *Tracer) { t.processor = p }
}

// WithEntropy substitutes the id entropy source, for tests and for
// exercising generation failure.
func WithEntropy(r io.Reader) Option {
	return func(t *Tracer) { t.gen = newGenerator(r) }
}

// WithResource merges service-level attributes stamped onto every
// exported record.
func WithResource(attrs map[string]string) Option {
	return func(t *Tracer) {
		for k, v := range attrs {
			t.resource[k] = v
		}
	}
}

// New creates a tracer for the named service. Without options it uses
// the real clock, crypto/rand entropy, a silent logger, and a discarding
// export pipeline.
func New(service string, opts ...Option) *Tracer {
	t := &Tracer{
		service:  service,
		resource: map[string]string{"service.name": service},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.clock == nil {
		t.clock = clockz.RealClock
	}
	if t.gen == nil {
		t.gen = newGenerator(nil)
	}
	if t.processor == nil {
		t.processor = export.NewSync(export.NewNoop(), export.SyncConfig{})
	}
	return t
}

// StartOption configures a single span at creation.
type StartOption func(*startConfig)

type startConfig struct {
	kind   Kind
	parent SpanContext
	attrs  map[string]any
}

// WithKind marks the span's role at a service boundary.
func WithKind(kind Kind) StartOption {
	return func(c *startConfig) { c.kind = kind }
}

// WithParent forces an explicit parent, typically a remote context
// extracted from inbound headers. It overrides any span in the context.
func WithParent(sc SpanContext) StartOption {
	return func(c *startConfig) { c.parent = sc }
}

// WithAttributes seeds the span's initial attributes.
func WithAttributes(attrs map[string]any) StartOption {
	return func(c *startConfig) { c.attrs = attrs }
}

// StartSpan creates a span and returns it with a derived context that
// carries it as the current span. Parent resolution: an explicit
// WithParent wins, then the current span in ctx, then none and the span
// roots a new trace with a fresh trace id. Children inherit the parent's
// trace id and flags; roots are created sampled.
//
// Id generation failure aborts span creation but never the operation:
// the caller gets a noop span and the original context.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...StartOption) (*Span, context.Context) {
	var cfg startConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	parent := cfg.parent
	if !parent.IsValid() {
		if cur, ok := SpanFromContext(ctx); ok {
			parent = cur.Context()
		}
	}

	sc, err := t.newSpanContext(parent)
	if err != nil {
		t.logger.Error("span creation aborted",
			zap.String("name", name),
			zap.Error(err),
		)
		return &Span{noop: true}, ctx
	}

	span := &Span{
		tracer: t,
		sc:     sc,
		name:   name,
		kind:   cfg.kind,
		start:  t.clock.Now(),
		attrs:  make(map[string]string, len(cfg.attrs)),
	}
	for k, v := range cfg.attrs {
		span.attrs[k] = stringify(v)
	}

	return span, ContextWithSpan(ctx, span)
}

func (t *Tracer) newSpanContext(parent SpanContext) (SpanContext, error) {
	spanID, err := t.gen.newSpanID()
	if err != nil {
		return SpanContext{}, err
	}
	if parent.IsValid() {
		return SpanContext{
			TraceID:  parent.TraceID,
			SpanID:   spanID,
			ParentID: parent.SpanID,
			Flags:    parent.Flags,
		}, nil
	}

	traceID, err := t.gen.newTraceID()
	if err != nil {
		return SpanContext{}, err
	}
	return SpanContext{
		TraceID: traceID,
		SpanID:  spanID,
		Flags:   FlagsSampled,
	}, nil
}

// WithSpan runs fn inside a span, ending it on every exit path. A
// returned error is recorded on the span; a panic marks it failed and is
// re-raised after the span ends.
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(context.Context) error, opts ...StartOption) error {
	span, ctx := t.StartSpan(ctx, name, opts...)
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(StatusError)
			span.SetAttribute("panic", fmt.Sprintf("%v", r))
			_ = span.End()
			panic(r)
		}
	}()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
	}
	_ = span.End()
	return err
}

// ForceFlush pushes buffered spans through to the sink.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	return t.processor.ForceFlush(ctx)
}

// Shutdown flushes and stops the export pipeline. The tracer still
// creates spans afterwards, but they are dropped and counted.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.processor.Shutdown(ctx)
}

// Dropped reports spans dropped by the export pipeline so far.
func (t *Tracer) Dropped() uint64 {
	return t.processor.Dropped()
}
