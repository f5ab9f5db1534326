package export

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureExporter records everything it is asked to export. An optional
// started signal fires on Export entry and an optional release channel
// blocks the call until closed, which lets tests sequence the worker.
type captureExporter struct {
	mu      sync.Mutex
	batches [][]Record
	closed  bool

	fail    error
	started chan struct{}
	release chan struct{}
}

func newCapture() *captureExporter { return &captureExporter{} }

func (c *captureExporter) Name() string { return "capture" }

func (c *captureExporter) Export(ctx context.Context, batch []Record) error {
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.fail != nil {
		return c.fail
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]Record, len(batch))
	copy(cp, batch)
	c.batches = append(c.batches, cp)
	return nil
}

func (c *captureExporter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureExporter) records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	var all []Record
	for _, b := range c.batches {
		all = append(all, b...)
	}
	return all
}

func (c *captureExporter) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestSyncExportsInline(t *testing.T) {
	sink := newCapture()
	s := NewSync(sink, SyncConfig{})

	s.OnEnd(sampleRecord())

	require.Len(t, sink.records(), 1)
	assert.Equal(t, uint64(0), s.Dropped())
}

func TestSyncDropsOnSinkFailure(t *testing.T) {
	sink := newCapture()
	sink.fail = errors.New("sink down")
	s := NewSync(sink, SyncConfig{})

	s.OnEnd(sampleRecord())

	assert.Empty(t, sink.records())
	assert.Equal(t, uint64(1), s.Dropped())
}

func TestSyncHonorsExportTimeout(t *testing.T) {
	sink := newCapture()
	sink.release = make(chan struct{}) // never released
	s := NewSync(sink, SyncConfig{ExportTimeout: 20 * time.Millisecond})

	start := time.Now()
	s.OnEnd(sampleRecord())
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "OnEnd must not block past the export timeout")
	assert.Equal(t, uint64(1), s.Dropped())
}

func TestSyncShutdown(t *testing.T) {
	sink := newCapture()
	s := NewSync(sink, SyncConfig{})

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, sink.isClosed())

	s.OnEnd(sampleRecord())
	assert.Empty(t, sink.records())
	assert.Equal(t, uint64(1), s.Dropped())

	require.NoError(t, s.Shutdown(context.Background()), "second shutdown is a no-op")
}
