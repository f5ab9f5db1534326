package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tracewire/internal/config"
	"github.com/GriffinCanCode/tracewire/internal/logging"
	"github.com/GriffinCanCode/tracewire/internal/middleware"
	"github.com/GriffinCanCode/tracewire/internal/monitoring"
	"github.com/GriffinCanCode/tracewire/internal/orders"
	"github.com/GriffinCanCode/tracewire/internal/resilience"
	"github.com/GriffinCanCode/tracewire/internal/tracing"
	"github.com/GriffinCanCode/tracewire/internal/tracing/export"
)

const (
	// ServiceName identifies this service in spans and resource attributes.
	ServiceName = "orders-api"

	// Version is reported by the root endpoint and attached to every span.
	Version = "0.3.0"

	shutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	store   *orders.Store
	client  *tracing.Client
	breaker *resilience.Breaker
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// Option overrides a dependency before initialization, mainly so tests
// can inject a capture tracer or metrics on a private registry.
type Option func(*Server)

// WithLogger overrides the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics overrides the metrics set.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithTracer overrides the tracer, bypassing the configured export pipeline.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		if cfg.Logging.Development {
			s.logger = logging.NewDevelopment()
		} else {
			s.logger = logging.NewDefault()
		}
	}
	logger := s.logger

	logger.Info("Initializing orders server",
		zap.String("port", cfg.Server.Port),
		zap.String("exporter", cfg.Trace.Exporter),
		zap.String("downstream", cfg.Downstream.URL),
	)

	if s.metrics == nil {
		s.metrics = monitoring.NewMetrics()
	}

	if s.tracer == nil {
		tracer, err := buildTracer(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.tracer = tracer
		logger.Info("Distributed tracing initialized",
			zap.String("exporter", cfg.Trace.Exporter),
			zap.Bool("batch", cfg.Trace.Batch),
		)
	}

	s.store = orders.NewStore(orders.Config{
		QueryLatency: time.Duration(cfg.Store.QueryLatencyMS) * time.Millisecond,
	})

	if cfg.Downstream.BreakerEnabled {
		s.breaker = resilience.New("downstream", resilience.Settings{
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	s.client = tracing.NewClient(s.tracer, tracing.ClientConfig{
		Timeout:    time.Duration(cfg.Downstream.TimeoutSeconds) * time.Second,
		RetryCount: cfg.Downstream.RetryCount,
		RateLimit:  cfg.Downstream.RateLimit,
		Breaker:    s.breaker,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.Middleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := newHandlers(s.store, s.client, s.tracer, s.metrics, logger, s.breaker, cfg.Downstream.URL)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/orders", handlers.ListOrders)
	router.GET("/orders/:id", handlers.GetOrder)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router = router
	s.http = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server, draining in-flight requests
// and flushing buffered spans.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		firstErr = fmt.Errorf("http shutdown: %w", err)
	}

	if err := s.tracer.Shutdown(ctx); err != nil {
		s.logger.Warn("Trace pipeline shutdown failed", zap.Error(err))
		if firstErr == nil {
			firstErr = fmt.Errorf("tracer shutdown: %w", err)
		}
	}

	s.logger.Sync()
	return firstErr
}

func buildTracer(cfg *config.Config, logger *logging.Logger) (*tracing.Tracer, error) {
	exp, err := buildExporter(cfg.Trace, logger)
	if err != nil {
		return nil, err
	}

	var processor export.Processor
	if cfg.Trace.Batch {
		processor = export.NewBatch(exp, export.BatchConfig{
			QueueSize:     cfg.Trace.QueueSize,
			BatchSize:     cfg.Trace.BatchSize,
			FlushInterval: time.Duration(cfg.Trace.FlushMS) * time.Millisecond,
			Logger:        logger.Logger,
		})
	} else {
		processor = export.NewSync(exp, export.SyncConfig{Logger: logger.Logger})
	}

	hostname, _ := os.Hostname()
	return tracing.New(ServiceName,
		tracing.WithLogger(logger.Logger),
		tracing.WithProcessor(processor),
		tracing.WithResource(map[string]string{
			"service.version":        Version,
			"deployment.environment": cfg.Trace.Environment,
			"host.name":              hostname,
		}),
	), nil
}

func buildExporter(cfg config.TraceConfig, logger *logging.Logger) (export.Exporter, error) {
	switch cfg.Exporter {
	case "console":
		return export.NewConsole(os.Stdout), nil
	case "collector":
		return export.NewCollector(export.CollectorConfig{
			Addr:   cfg.CollectorAddr,
			Logger: logger.Logger,
		})
	case "none", "":
		return export.NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
}
