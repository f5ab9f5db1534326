package export

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestCollectorConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "default address", addr: "", wantErr: false},
		{name: "tcp", addr: "tcp://localhost:4317", wantErr: false},
		{name: "udp", addr: "udp://localhost:4317", wantErr: false},
		{name: "unix", addr: "unix:///var/run/tracewire.sock", wantErr: false},
		{name: "unsupported scheme", addr: "http://localhost:4317", wantErr: true},
		{name: "missing host", addr: "tcp://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCollector(CollectorConfig{Addr: tt.addr})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, c.address)
		})
	}
}

func TestCollectorRoundTripTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan Record, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			rec, err := ReadFrame(conn)
			if err != nil {
				return
			}
			received <- rec
		}
	}()

	c, err := NewCollector(CollectorConfig{Addr: "tcp://" + ln.Addr().String()})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := sampleRecord()
	second := sampleRecord()
	second.SpanID = "53995c3f42cd8ad8"
	require.NoError(t, c.Export(ctx, []Record{first, second}))

	for _, want := range []Record{first, second} {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for record")
		}
	}
}

func TestCollectorUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewCollector(CollectorConfig{Addr: "udp://" + pc.LocalAddr().String()})
	require.NoError(t, err)
	defer c.Close()

	rec := sampleRecord()
	require.NoError(t, c.Export(context.Background(), []Record{rec}))

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 64*1024)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var got Record
	require.NoError(t, json.Unmarshal(buf[:n], &got))
	assert.Equal(t, rec.TraceID, got.TraceID)
	assert.Equal(t, rec.SpanID, got.SpanID)
}

func TestCollectorUnreachableFailsFast(t *testing.T) {
	clock := clockz.NewFakeClock()
	c, err := NewCollector(CollectorConfig{
		Addr:        "tcp://127.0.0.1:1",
		DialTimeout: 250 * time.Millisecond,
		Clock:       clock,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = c.Export(ctx, []Record{sampleRecord()})
	require.Error(t, err)

	// The backoff window has not elapsed on the fake clock, so the next
	// attempt refuses to dial at all.
	err = c.Export(ctx, []Record{sampleRecord()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next dial")
}

func TestCollectorBackoffGrowsLinearly(t *testing.T) {
	clock := clockz.NewFakeClock()
	c, err := NewCollector(CollectorConfig{
		Addr:       "tcp://127.0.0.1:1",
		Backoff:    20 * time.Millisecond,
		MaxBackoff: 50 * time.Millisecond,
		Clock:      clock,
	})
	require.NoError(t, err)

	now := clock.Now()
	c.failLocked(now)
	assert.Equal(t, now.Add(20*time.Millisecond), c.nextDial)
	c.failLocked(now)
	assert.Equal(t, now.Add(40*time.Millisecond), c.nextDial)
	c.failLocked(now)
	assert.Equal(t, now.Add(50*time.Millisecond), c.nextDial, "backoff should cap at MaxBackoff")
}
