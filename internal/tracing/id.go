package tracing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
)

// TraceID is a 128-bit trace identifier, constant across every span in
// one trace. The zero value is invalid and never generated.
type TraceID [16]byte

// SpanID is a 64-bit span identifier, unique within its trace. The zero
// value is invalid and never generated.
type SpanID [8]byte

// TraceFlags is the one-byte flag set carried alongside the ids. Bit 0 is
// the sampled flag.
type TraceFlags byte

// FlagsSampled marks a trace whose spans are exported.
const FlagsSampled TraceFlags = 0x01

// String renders the id as 32 lowercase hex characters.
func (t TraceID) String() string { return hex.EncodeToString(t[:]) }

// IsZero reports whether the id is the invalid all-zero value.
func (t TraceID) IsZero() bool { return t == TraceID{} }

// String renders the id as 16 lowercase hex characters.
func (s SpanID) String() string { return hex.EncodeToString(s[:]) }

// IsZero reports whether the id is the invalid all-zero value.
func (s SpanID) IsZero() bool { return s == SpanID{} }

// Sampled reports the sampled bit.
func (f TraceFlags) Sampled() bool { return f&FlagsSampled != 0 }

// WithSampled returns the flags with the sampled bit set or cleared.
func (f TraceFlags) WithSampled(sampled bool) TraceFlags {
	if sampled {
		return f | FlagsSampled
	}
	return f &^ FlagsSampled
}

// String renders the flags as two lowercase hex characters.
func (f TraceFlags) String() string { return fmt.Sprintf("%02x", byte(f)) }

// TraceIDFromHex parses a 32-character lowercase hex trace id.
func TraceIDFromHex(s string) (TraceID, error) {
	var id TraceID
	if err := decodeLowerHex(id[:], s); err != nil {
		return TraceID{}, fmt.Errorf("tracing: trace id %q: %w", s, err)
	}
	return id, nil
}

// SpanIDFromHex parses a 16-character lowercase hex span id.
func SpanIDFromHex(s string) (SpanID, error) {
	var id SpanID
	if err := decodeLowerHex(id[:], s); err != nil {
		return SpanID{}, fmt.Errorf("tracing: span id %q: %w", s, err)
	}
	return id, nil
}

// decodeLowerHex decodes exactly len(dst)*2 lowercase hex characters.
// Uppercase input is rejected; the wire format is lowercase only.
func decodeLowerHex(dst []byte, s string) error {
	if len(s) != len(dst)*2 {
		return errors.New("wrong length")
	}
	for i := 0; i < len(s); i++ {
		if !isLowerHex(s[i]) {
			return errors.New("not lowercase hex")
		}
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}

func isLowerHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}

// ErrEntropy reports an id-generation failure. Span creation aborts on
// it; the instrumented operation itself continues untraced.
var ErrEntropy = errors.New("tracing: entropy source failed")

// generator draws trace and span ids from an entropy source. The mutex
// protects the reader, which may be shared and stateful in tests.
type generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

func newGenerator(entropy io.Reader) *generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &generator{entropy: entropy}
}

// newTraceID returns a fresh nonzero trace id. The all-zero value is
// re-drawn rather than ever returned.
func (g *generator) newTraceID() (TraceID, error) {
	var id TraceID
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	for attempts := 0; attempts < 3; attempts++ {
		if _, err := io.ReadFull(g.entropy, id[:]); err != nil {
			return TraceID{}, fmt.Errorf("%w: %w", ErrEntropy, err)
		}
		if !id.IsZero() {
			return id, nil
		}
	}
	return TraceID{}, fmt.Errorf("%w: zero id after retries", ErrEntropy)
}

// newSpanID returns a fresh nonzero span id.
func (g *generator) newSpanID() (SpanID, error) {
	var id SpanID
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	for attempts := 0; attempts < 3; attempts++ {
		if _, err := io.ReadFull(g.entropy, id[:]); err != nil {
			return SpanID{}, fmt.Errorf("%w: %w", ErrEntropy, err)
		}
		if !id.IsZero() {
			return id, nil
		}
	}
	return SpanID{}, fmt.Errorf("%w: zero id after retries", ErrEntropy)
}
