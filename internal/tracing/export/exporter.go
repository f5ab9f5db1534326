package export

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter writes completed span records to a sink. Implementations hold
// no span state between calls; every Export is independent. I/O must
// respect the context deadline so a slow sink can never stall the caller
// beyond the processor's export timeout.
type Exporter interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Export writes a batch of frozen records. A non-nil error means the
	// whole batch was lost; the processor accounts for the drop. The
	// batch slice may be reused by the caller and must not be retained.
	Export(ctx context.Context, batch []Record) error

	// Close releases sink resources. No Export calls follow Close.
	Close() error
}

// Processor moves frozen records from ended spans into an exporter. It is
// the only component allowed to block on sink I/O; OnEnd itself must
// return promptly so instrumented operations never wait on tracing.
type Processor interface {
	// OnEnd accepts one frozen record. It never fails and blocks at most
	// for the configured export bound; records that cannot be accepted
	// are dropped and counted.
	OnEnd(rec Record)

	// ForceFlush pushes all accepted records to the sink, bounded by ctx.
	ForceFlush(ctx context.Context) error

	// Shutdown flushes, stops accepting records, and closes the exporter.
	Shutdown(ctx context.Context) error

	// Dropped reports the total number of records dropped so far.
	Dropped() uint64
}

// Drop reasons used in metrics labels.
const (
	dropReasonQueueFull = "queue_full"
	dropReasonSinkError = "sink_error"
	dropReasonShutdown  = "shutdown"
)

var (
	spansExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracewire_spans_exported_total",
			Help: "Completed spans successfully written to a sink",
		},
		[]string{"exporter"},
	)

	spansDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracewire_spans_dropped_total",
			Help: "Completed spans dropped instead of exported",
		},
		[]string{"exporter", "reason"},
	)

	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracewire_export_duration_seconds",
			Help:    "Time spent writing batches to a sink",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"exporter"},
	)
)
