package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestBatchFlushesOnSize(t *testing.T) {
	sink := newCapture()
	b := NewBatch(sink, BatchConfig{BatchSize: 2, FlushInterval: time.Hour})
	defer b.Shutdown(context.Background())

	b.OnEnd(sampleRecord())
	b.OnEnd(sampleRecord())

	assert.Eventually(t, func() bool {
		return len(sink.records()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(0), b.Dropped())
}

func TestBatchFlushesOnInterval(t *testing.T) {
	sink := newCapture()
	clock := clockz.NewFakeClock()
	b := NewBatch(sink, BatchConfig{
		BatchSize:     100,
		FlushInterval: 50 * time.Millisecond,
		Clock:         clock,
	})
	defer b.Shutdown(context.Background())

	b.OnEnd(sampleRecord())

	assert.Eventually(t, func() bool {
		clock.Advance(50 * time.Millisecond)
		// clockz queues timer deliveries; BlockUntilReady flushes them to
		// the worker's interval channel.
		clock.BlockUntilReady()
		return len(sink.records()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBatchDropsWhenQueueFull(t *testing.T) {
	sink := newCapture()
	// Buffered: the worker flushes each single-record batch through Export,
	// so the entry signal fires once per record while the test receives only
	// the first; an unbuffered send would strand the worker on the second.
	sink.started = make(chan struct{}, 1)
	sink.release = make(chan struct{})
	b := NewBatch(sink, BatchConfig{QueueSize: 1, BatchSize: 1, FlushInterval: time.Hour})
	defer b.Shutdown(context.Background())

	// First record reaches the exporter and parks it; the queue is empty
	// again once the worker signals.
	b.OnEnd(sampleRecord())
	<-sink.started

	// Second record fills the queue; the third has nowhere to go.
	b.OnEnd(sampleRecord())
	b.OnEnd(sampleRecord())
	assert.Equal(t, uint64(1), b.Dropped())

	close(sink.release)
	assert.Eventually(t, func() bool {
		return len(sink.records()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBatchDropsBatchOnSinkFailure(t *testing.T) {
	sink := newCapture()
	sink.fail = errors.New("collector unreachable")
	b := NewBatch(sink, BatchConfig{BatchSize: 2, FlushInterval: time.Hour})
	defer b.Shutdown(context.Background())

	b.OnEnd(sampleRecord())
	b.OnEnd(sampleRecord())

	assert.Eventually(t, func() bool {
		return b.Dropped() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, sink.records())
}

func TestBatchForceFlush(t *testing.T) {
	sink := newCapture()
	b := NewBatch(sink, BatchConfig{BatchSize: 100, FlushInterval: time.Hour})
	defer b.Shutdown(context.Background())

	for i := 0; i < 3; i++ {
		b.OnEnd(sampleRecord())
	}
	require.NoError(t, b.ForceFlush(context.Background()))
	assert.Len(t, sink.records(), 3)
}

func TestBatchShutdownDrains(t *testing.T) {
	sink := newCapture()
	b := NewBatch(sink, BatchConfig{BatchSize: 100, FlushInterval: time.Hour})

	for i := 0; i < 3; i++ {
		b.OnEnd(sampleRecord())
	}
	require.NoError(t, b.Shutdown(context.Background()))

	assert.Len(t, sink.records(), 3)
	assert.True(t, sink.isClosed())

	b.OnEnd(sampleRecord())
	assert.Equal(t, uint64(1), b.Dropped())

	require.NoError(t, b.Shutdown(context.Background()), "second shutdown is a no-op")
}
