package export

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// DefaultExportTimeout bounds a single Export call issued by a processor.
const DefaultExportTimeout = 5 * time.Second

// SyncConfig configures a synchronous processor.
type SyncConfig struct {
	ExportTimeout time.Duration
	Logger        *zap.Logger
	Clock         clockz.Clock
}

// Sync exports each record inline as its span ends, bounded by the export
// timeout. Sink failures drop the record and are counted, never returned
// into the instrumented operation.
type Sync struct {
	exp     Exporter
	timeout time.Duration
	logger  *zap.Logger
	clock   clockz.Clock
	closed  atomic.Bool
	dropped atomic.Uint64
}

// NewSync creates a synchronous processor over exp.
func NewSync(exp Exporter, cfg SyncConfig) *Sync {
	s := &Sync{
		exp:     exp,
		timeout: cfg.ExportTimeout,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultExportTimeout
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = clockz.RealClock
	}
	return s
}

// OnEnd exports rec immediately. It blocks at most for the export timeout.
func (s *Sync) OnEnd(rec Record) {
	if s.closed.Load() {
		s.drop(1, dropReasonShutdown)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := s.clock.Now()
	err := s.exp.Export(ctx, []Record{rec})
	exportDuration.WithLabelValues(s.exp.Name()).Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.drop(1, dropReasonSinkError)
		s.logger.Warn("span dropped",
			zap.String("exporter", s.exp.Name()),
			zap.String("span", rec.SpanID),
			zap.Error(err),
		)
		return
	}
	spansExported.WithLabelValues(s.exp.Name()).Inc()
}

// ForceFlush is a no-op; nothing is buffered.
func (s *Sync) ForceFlush(context.Context) error { return nil }

// Shutdown stops accepting records and closes the exporter.
func (s *Sync) Shutdown(context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.exp.Close()
}

// Dropped reports the total records dropped so far.
func (s *Sync) Dropped() uint64 { return s.dropped.Load() }

func (s *Sync) drop(n int, reason string) {
	s.dropped.Add(uint64(n))
	spansDropped.WithLabelValues(s.exp.Name(), reason).Add(float64(n))
}
