package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Collector connection defaults.
const (
	DefaultCollectorAddr = "tcp://localhost:4317"
	DefaultDialTimeout   = 10 * time.Second
	DefaultBackoff       = 20 * time.Millisecond
	DefaultMaxBackoff    = 1 * time.Second
)

// CollectorConfig configures a network collector exporter.
type CollectorConfig struct {
	// Addr is a URL of the form tcp://host:port, udp://host:port or
	// unix:///path. Empty selects DefaultCollectorAddr.
	Addr string

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// Backoff and MaxBackoff shape the linear redial backoff after a
	// connection failure.
	Backoff    time.Duration
	MaxBackoff time.Duration

	Logger *zap.Logger
	Clock  clockz.Clock
}

// Collector ships records to a collector process over the network. Stream
// transports (tcp, unix) carry framed records; udp sends one bare JSON
// datagram per record. The connection is dialed lazily and redialed with
// backoff after failures, so an unreachable collector costs each Export a
// fast error instead of a hang.
type Collector struct {
	network     string
	address     string
	stream      bool
	dialTimeout time.Duration
	backoff     time.Duration
	maxBackoff  time.Duration
	logger      *zap.Logger
	clock       clockz.Clock

	mu       sync.Mutex
	conn     net.Conn
	failures int
	nextDial time.Time
}

// NewCollector creates a collector exporter from cfg. It does not dial;
// the first Export does.
func NewCollector(cfg CollectorConfig) (*Collector, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultCollectorAddr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("collector: parse address %q: %w", addr, err)
	}

	c := &Collector{
		stream:      true,
		dialTimeout: cfg.DialTimeout,
		backoff:     cfg.Backoff,
		maxBackoff:  cfg.MaxBackoff,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}
	switch u.Scheme {
	case "tcp":
		c.network, c.address = "tcp", u.Host
	case "udp":
		c.network, c.address = "udp", u.Host
		c.stream = false
	case "unix":
		c.network, c.address = "unix", u.Path
	default:
		return nil, fmt.Errorf("collector: unsupported scheme %q in %q", u.Scheme, addr)
	}
	if c.address == "" {
		return nil, fmt.Errorf("collector: empty address in %q", addr)
	}

	if c.dialTimeout <= 0 {
		c.dialTimeout = DefaultDialTimeout
	}
	if c.backoff <= 0 {
		c.backoff = DefaultBackoff
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = DefaultMaxBackoff
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.clock == nil {
		c.clock = clockz.RealClock
	}
	return c, nil
}

// Name identifies the sink.
func (c *Collector) Name() string { return "collector" }

// Export writes the batch to the collector, dialing first if needed.
// A write failure poisons the connection; it is closed and redialed on a
// later Export once the backoff window has passed.
func (c *Collector) Export(ctx context.Context, batch []Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connLocked(ctx)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			c.dropConnLocked()
			return fmt.Errorf("collector: set deadline: %w", err)
		}
	}

	for i := range batch {
		if err := c.writeLocked(conn, &batch[i]); err != nil {
			if IsFramingError(err) {
				c.dropConnLocked()
			}
			return err
		}
	}
	c.failures = 0
	return nil
}

// Close tears down the connection.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Collector) writeLocked(conn net.Conn, rec *Record) error {
	if c.stream {
		return WriteFrame(conn, *rec)
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("collector: encode record: %w", err)
	}
	if _, err := conn.Write(body); err != nil {
		return &errFrameIO{err: err}
	}
	return nil
}

func (c *Collector) connLocked(ctx context.Context) (net.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	now := c.clock.Now()
	if now.Before(c.nextDial) {
		return nil, fmt.Errorf("collector: %s unreachable, next dial in %s",
			c.address, c.nextDial.Sub(now).Round(time.Millisecond))
	}

	dialer := &net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, c.network, c.address)
	if err != nil {
		c.failLocked(now)
		return nil, fmt.Errorf("collector: dial %s %s: %w", c.network, c.address, err)
	}

	c.logger.Info("connected to trace collector",
		zap.String("network", c.network),
		zap.String("addr", c.address),
	)
	c.conn = conn
	return conn, nil
}

func (c *Collector) dropConnLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.failLocked(c.clock.Now())
}

func (c *Collector) failLocked(now time.Time) {
	c.failures++
	backoff := c.backoff * time.Duration(c.failures)
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	c.nextDial = now.Add(backoff)
}
