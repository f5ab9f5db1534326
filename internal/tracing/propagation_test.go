package tracing

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestTraceParentRoundTrip(t *testing.T) {
	sc, err := ParseTraceParent(wellFormedTraceParent)
	require.NoError(t, err)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID.String())
	assert.Equal(t, "00f067aa0ba902b7", sc.SpanID.String())
	assert.True(t, sc.IsSampled())
	assert.True(t, sc.Remote)

	assert.Equal(t, wellFormedTraceParent, FormatTraceParent(sc))
}

func TestTraceParentRoundTripGenerated(t *testing.T) {
	gen := newGenerator(nil)
	for i := 0; i < 25; i++ {
		traceID, err := gen.newTraceID()
		require.NoError(t, err)
		spanID, err := gen.newSpanID()
		require.NoError(t, err)

		in := SpanContext{TraceID: traceID, SpanID: spanID, Flags: FlagsSampled}
		out, err := ParseTraceParent(FormatTraceParent(in))
		require.NoError(t, err)

		assert.Equal(t, in.TraceID, out.TraceID)
		assert.Equal(t, in.SpanID, out.SpanID)
		assert.Equal(t, in.Flags, out.Flags)
		assert.True(t, out.Remote)
	}
}

func TestParseTraceParentRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
		field string
	}{
		{
			name:  "empty",
			value: "",
			field: "length",
		},
		{
			name:  "truncated",
			value: wellFormedTraceParent[:54],
			field: "length",
		},
		{
			name:  "trailing garbage",
			value: wellFormedTraceParent + "x",
			field: "length",
		},
		{
			name:  "wrong separator",
			value: "00_4bf92f3577b34da6a3ce929d0e0e4736_00f067aa0ba902b7_01",
			field: "separators",
		},
		{
			name:  "future version",
			value: "01-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			field: "version",
		},
		{
			name:  "uppercase trace id",
			value: "00-4BF92F3577B34DA6A3CE929D0E0E4736-00f067aa0ba902b7-01",
			field: "trace-id",
		},
		{
			name:  "non-hex trace id",
			value: "00-4bf92f3577b34da6a3ce929d0e0e473z-00f067aa0ba902b7-01",
			field: "trace-id",
		},
		{
			name:  "zero trace id",
			value: "00-00000000000000000000000000000000-00f067aa0ba902b7-01",
			field: "trace-id",
		},
		{
			name:  "zero parent id",
			value: "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01",
			field: "parent-id",
		},
		{
			name:  "uppercase flags",
			value: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-0F",
			field: "flags",
		},
		{
			name:  "non-hex flags",
			value: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-0g",
			field: "flags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTraceParent(tt.value)
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)

			// The lenient path discards it entirely.
			header := http.Header{}
			header.Set(TraceParentHeader, tt.value)
			_, ok := Extract(header)
			assert.False(t, ok)
		})
	}
}

func TestParseTraceParentUnsampled(t *testing.T) {
	sc, err := ParseTraceParent("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00")
	require.NoError(t, err)
	assert.False(t, sc.IsSampled())
}

func TestExtract(t *testing.T) {
	header := http.Header{}
	_, ok := Extract(header)
	assert.False(t, ok, "absent header yields no context")

	header.Set(TraceParentHeader, wellFormedTraceParent)
	sc, ok := Extract(header)
	require.True(t, ok)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID.String())
}

func TestInject(t *testing.T) {
	sc, err := ParseTraceParent(wellFormedTraceParent)
	require.NoError(t, err)

	header := http.Header{}
	header.Set(TraceParentHeader, "stale-value")
	Inject(sc, header)
	assert.Equal(t, wellFormedTraceParent, header.Get(TraceParentHeader))

	empty := http.Header{}
	Inject(SpanContext{}, empty)
	_, present := empty[http.CanonicalHeaderKey(TraceParentHeader)]
	assert.False(t, present, "invalid contexts are not written")
}

func TestFormatTraceParentShape(t *testing.T) {
	sc, err := ParseTraceParent(wellFormedTraceParent)
	require.NoError(t, err)

	value := FormatTraceParent(sc)
	assert.Len(t, value, 55)
	assert.Equal(t, strings.ToLower(value), value, "wire format is lowercase hex")
	parts := strings.Split(value, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "00", parts[0])
	assert.Len(t, parts[1], 32)
	assert.Len(t, parts[2], 16)
	assert.Len(t, parts[3], 2)
}
