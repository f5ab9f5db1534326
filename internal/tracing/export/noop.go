package export

import "context"

// Noop discards every record. It backs the "none" exporter setting and
// serves as a blackhole sink in tests.
type Noop struct{}

// NewNoop creates a discarding exporter.
func NewNoop() *Noop { return &Noop{} }

// Name identifies the sink.
func (*Noop) Name() string { return "noop" }

// Export drops the batch.
func (*Noop) Export(context.Context, []Record) error { return nil }

// Close is a no-op.
func (*Noop) Close() error { return nil }
