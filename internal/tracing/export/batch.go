package export

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Batch processor defaults.
const (
	DefaultQueueSize     = 2048
	DefaultBatchSize     = 512
	DefaultFlushInterval = 5 * time.Second
)

// BatchConfig configures a batching processor.
type BatchConfig struct {
	// QueueSize bounds the records waiting for the worker. A full queue
	// drops new records immediately.
	QueueSize int

	// BatchSize is the largest batch handed to one Export call.
	BatchSize int

	// FlushInterval flushes a partial batch that has been sitting longer
	// than this.
	FlushInterval time.Duration

	// ExportTimeout bounds each Export call.
	ExportTimeout time.Duration

	Logger *zap.Logger
	Clock  clockz.Clock
}

// Batch buffers ended spans in a bounded queue drained by a single worker
// goroutine, which flushes batches on size or interval. The instrumented
// operation only ever pays a non-blocking channel send; everything slower
// is the worker's problem.
type Batch struct {
	exp       Exporter
	queue     chan Record
	batchSize int
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	clock     clockz.Clock

	flushReq chan chan struct{}
	stop     chan struct{}
	done     chan struct{}
	closed   atomic.Bool
	dropped  atomic.Uint64
}

// NewBatch creates a batching processor over exp and starts its worker.
func NewBatch(exp Exporter, cfg BatchConfig) *Batch {
	b := &Batch{
		exp:       exp,
		batchSize: cfg.BatchSize,
		interval:  cfg.FlushInterval,
		timeout:   cfg.ExportTimeout,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
		flushReq:  make(chan chan struct{}),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	b.queue = make(chan Record, queueSize)
	if b.batchSize <= 0 {
		b.batchSize = DefaultBatchSize
	}
	if b.interval <= 0 {
		b.interval = DefaultFlushInterval
	}
	if b.timeout <= 0 {
		b.timeout = DefaultExportTimeout
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.clock == nil {
		b.clock = clockz.RealClock
	}

	go b.worker()
	return b
}

// OnEnd enqueues rec without blocking. A full queue drops it.
func (b *Batch) OnEnd(rec Record) {
	if b.closed.Load() {
		b.drop(1, dropReasonShutdown)
		return
	}
	select {
	case b.queue <- rec:
	default:
		b.drop(1, dropReasonQueueFull)
		b.logger.Warn("span queue full, dropping span",
			zap.String("span", rec.SpanID),
			zap.String("name", rec.Name),
		)
	}
}

// ForceFlush drains the queue and flushes the pending batch.
func (b *Batch) ForceFlush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case b.flushReq <- ack:
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the worker after a final drain and closes the exporter.
func (b *Batch) Shutdown(ctx context.Context) error {
	if b.closed.Swap(true) {
		return nil
	}
	close(b.stop)
	select {
	case <-b.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.exp.Close()
}

// Dropped reports the total records dropped so far.
func (b *Batch) Dropped() uint64 { return b.dropped.Load() }

func (b *Batch) worker() {
	defer close(b.done)

	buf := make([]Record, 0, b.batchSize)
	tick := b.clock.After(b.interval)
	for {
		select {
		case rec := <-b.queue:
			buf = append(buf, rec)
			if len(buf) >= b.batchSize {
				buf = b.flush(buf)
			}
		case <-tick:
			buf = b.flush(buf)
			tick = b.clock.After(b.interval)
		case ack := <-b.flushReq:
			buf = b.flush(b.drain(buf))
			close(ack)
		case <-b.stop:
			b.flush(b.drain(buf))
			return
		}
	}
}

// drain moves everything already queued into buf, flushing full batches.
func (b *Batch) drain(buf []Record) []Record {
	for {
		select {
		case rec := <-b.queue:
			buf = append(buf, rec)
			if len(buf) >= b.batchSize {
				buf = b.flush(buf)
			}
		default:
			return buf
		}
	}
}

// flush hands buf to the exporter and returns the reset buffer. The slice
// is reused, so exporters must not retain it past the call.
func (b *Batch) flush(buf []Record) []Record {
	if len(buf) == 0 {
		return buf
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	start := b.clock.Now()
	err := b.exp.Export(ctx, buf)
	exportDuration.WithLabelValues(b.exp.Name()).Observe(b.clock.Since(start).Seconds())
	if err != nil {
		b.drop(len(buf), dropReasonSinkError)
		b.logger.Warn("span batch dropped",
			zap.String("exporter", b.exp.Name()),
			zap.Int("spans", len(buf)),
			zap.Error(err),
		)
	} else {
		spansExported.WithLabelValues(b.exp.Name()).Add(float64(len(buf)))
	}
	return buf[:0]
}

func (b *Batch) drop(n int, reason string) {
	b.dropped.Add(uint64(n))
	spansDropped.WithLabelValues(b.exp.Name(), reason).Add(float64(n))
}
