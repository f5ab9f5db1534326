package export

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Wire format for streaming records to a collector: a one-byte protocol
// version, a four-byte big-endian payload length, then the JSON-encoded
// record. Datagram transports send the bare JSON payload instead.
const (
	wireVersion = 0x00

	// frameHeaderLength is the version byte plus the length word.
	frameHeaderLength = 5

	// MaxFrameLength caps a single record's encoded size. Anything larger
	// is refused before it reaches the stream.
	MaxFrameLength = 1 << 20
)

type errFrameVersion byte

func (e errFrameVersion) Error() string {
	return fmt.Sprintf("wire: unsupported frame version 0x%02x", byte(e))
}

type errFrameLength uint32

func (e errFrameLength) Error() string {
	return fmt.Sprintf("wire: frame length %d exceeds maximum %d", uint32(e), MaxFrameLength)
}

type errFrameIO struct {
	err error
}

func (e *errFrameIO) Error() string { return fmt.Sprintf("wire: %v", e.err) }
func (e *errFrameIO) Unwrap() error { return e.err }

// IsFramingError reports whether err poisoned the stream. After a framing
// error the reader and writer are out of sync and the connection must be
// closed; other errors (such as an unencodable record) leave the stream
// usable.
func IsFramingError(err error) bool {
	var (
		ev errFrameVersion
		el errFrameLength
		ei *errFrameIO
	)
	return errors.As(err, &ev) || errors.As(err, &el) || errors.As(err, &ei)
}

// WriteFrame encodes rec and writes one frame to w.
func WriteFrame(w io.Writer, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("wire: encode record: %w", err)
	}
	if len(body) > MaxFrameLength {
		return errFrameLength(len(body))
	}

	var header [frameHeaderLength]byte
	header[0] = wireVersion
	binary.BigEndian.PutUint32(header[1:], uint32(len(body)))

	if _, err := w.Write(header[:]); err != nil {
		return &errFrameIO{err: err}
	}
	if _, err := w.Write(body); err != nil {
		return &errFrameIO{err: err}
	}
	return nil
}

// ReadFrame reads one frame from r and decodes the record it carries.
// It is the collector-side inverse of WriteFrame.
func ReadFrame(r io.Reader) (Record, error) {
	var header [frameHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Record{}, &errFrameIO{err: err}
	}
	if header[0] != wireVersion {
		return Record{}, errFrameVersion(header[0])
	}
	length := binary.BigEndian.Uint32(header[1:])
	if length > MaxFrameLength {
		return Record{}, errFrameLength(length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Record{}, &errFrameIO{err: err}
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("wire: decode record: %w", err)
	}
	return rec, nil
}
