/*
Package export delivers completed spans to their sinks.

# Overview

This package owns everything that happens to a span after End: the frozen
Record form, the Exporter sinks that write records somewhere, and the
Processor delivery strategies that move records from ending spans into a
sink without ever failing or stalling the instrumented operation.

# Sinks

- Console: human-readable text, one line per span, serialized writes
- Collector: framed JSON records over tcp/unix (or bare datagrams over
  udp) to a collector process, with lazy dialing and redial backoff
- Noop: discards everything; used when tracing is configured off

# Processors

- Sync: exports inline as each span ends, bounded by a timeout
- Batch: bounded queue drained by one worker, flushing on size or interval

Both count drops (full queue, sink failure) in Prometheus counters and in
an atomic total readable via Dropped(). Export failures are logged and
absorbed; they never reach application code.

# Usage

	exp, err := export.NewCollector(export.CollectorConfig{
		Addr:   "tcp://localhost:4317",
		Logger: logger,
	})
	if err != nil {
		return err
	}
	proc := export.NewBatch(exp, export.BatchConfig{Logger: logger})
	defer proc.Shutdown(ctx)

# Wire Format

Stream transports frame each record as one version byte (0x00), a four
byte big-endian payload length, then the JSON record. Framing errors
poison the stream and force a reconnect; IsFramingError distinguishes
them from record-level failures.
*/
package export
