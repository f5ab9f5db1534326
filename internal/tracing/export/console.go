package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

const consoleTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Console renders completed spans as human-readable text, one line per
// span. Writes are serialized so records from concurrent flows never
// interleave mid-line.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console exporter writing to w. A nil writer
// defaults to stdout.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Name identifies the sink.
func (c *Console) Name() string { return "console" }

// Export formats the batch and writes it in a single call.
func (c *Console) Export(_ context.Context, batch []Record) error {
	var b strings.Builder
	for i := range batch {
		writeLine(&b, &batch[i])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}

// Close is a no-op; the console does not own its writer.
func (c *Console) Close() error { return nil }

func writeLine(b *strings.Builder, rec *Record) {
	b.WriteString(rec.EndTime.UTC().Format(consoleTimeLayout))
	b.WriteByte(' ')
	if rec.Service != "" {
		b.WriteString(rec.Service)
		b.WriteByte(' ')
	}
	b.WriteString(strings.ToUpper(rec.Status))
	if rec.Kind != "" {
		b.WriteByte(' ')
		b.WriteString(rec.Kind)
	}
	fmt.Fprintf(b, " %q %s trace=%s span=%s", rec.Name, rec.Duration, rec.TraceID, rec.SpanID)
	if rec.ParentID != "" {
		b.WriteString(" parent=")
		b.WriteString(rec.ParentID)
	}
	for _, k := range sortedKeys(rec.Attributes) {
		fmt.Fprintf(b, " %s=%s", k, rec.Attributes[k])
	}
	for _, ev := range rec.Events {
		fmt.Fprintf(b, " event=%s@%s", ev.Name, ev.Time.Sub(rec.StartTime))
	}
	b.WriteByte('\n')
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
