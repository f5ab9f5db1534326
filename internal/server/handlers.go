package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tracewire/internal/logging"
	"github.com/GriffinCanCode/tracewire/internal/middleware"
	"github.com/GriffinCanCode/tracewire/internal/monitoring"
	"github.com/GriffinCanCode/tracewire/internal/orders"
	"github.com/GriffinCanCode/tracewire/internal/resilience"
	"github.com/GriffinCanCode/tracewire/internal/tracing"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store         *orders.Store
	client        *tracing.Client
	tracer        *tracing.Tracer
	metrics       *monitoring.Metrics
	logger        *logging.Logger
	breaker       *resilience.Breaker
	downstreamURL string
}

// newHandlers creates a new handler set
func newHandlers(
	store *orders.Store,
	client *tracing.Client,
	tracer *tracing.Tracer,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
	breaker *resilience.Breaker,
	downstreamURL string,
) *Handlers {
	return &Handlers{
		store:         store,
		client:        client,
		tracer:        tracer,
		metrics:       metrics,
		logger:        logger,
		breaker:       breaker,
		downstreamURL: downstreamURL,
	}
}

// Root handles basic service identification
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": ServiceName,
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	breakerState := "disabled"
	if h.breaker != nil {
		breakerState = h.breaker.State().String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"orders":         gin.H{"count": h.store.Len()},
		"trace":          gin.H{"spans_dropped": h.tracer.Dropped()},
		"downstream":     gin.H{"breaker": breakerState},
		"uptime_seconds": h.metrics.UptimeSeconds(),
	})
}

// ListOrders lists the full catalog
func (h *Handlers) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	var list []orders.Order
	err := h.tracer.WithSpan(ctx, "list-orders", func(ctx context.Context) error {
		var err error
		list, err = h.store.List(ctx)
		return err
	}, tracing.WithAttributes(map[string]any{"db.system": "memory"}))
	if err != nil {
		h.logger.WithTrace(ctx).Error("Order listing failed", zap.Error(err))
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order listing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": list,
		"count":  len(list),
	})
}

// GetOrder loads one order and confirms fulfillment with the downstream
// service. The store query runs under a child span and the downstream
// call carries the trace onward, so one request yields the full tree.
func (h *Handlers) GetOrder(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")
	log := h.logger.WithTrace(ctx)

	if err := orders.ValidateID(orderID); err != nil {
		h.metrics.RecordOrderServed("invalid_id")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "order id must be numeric",
			"order_id": orderID,
		})
		return
	}

	span, _ := tracing.SpanFromContext(ctx)
	span.SetAttribute("app.order_id", orderID)
	if reqID := middleware.RequestIDFromContext(c); reqID != "" {
		span.SetAttribute("app.request_id", reqID)
	}

	var order orders.Order
	err := h.tracer.WithSpan(ctx, "load-order", func(ctx context.Context) error {
		child, _ := tracing.SpanFromContext(ctx)
		child.SetAttribute("app.order_id", orderID)
		child.AddEvent("db.query.start", map[string]any{
			"db.statement": "SELECT * FROM orders WHERE id = ?",
		})

		var err error
		order, err = h.store.Get(ctx, orderID)
		return err
	}, tracing.WithAttributes(map[string]any{"db.system": "memory"}))

	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			h.metrics.RecordOrderServed("not_found")
			c.JSON(http.StatusNotFound, gin.H{
				"error":    "order not found",
				"order_id": orderID,
			})
			return
		}
		h.metrics.RecordOrderServed("store_error")
		log.Error("Order lookup failed", zap.String("order_id", orderID), zap.Error(err))
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
		return
	}

	span.SetAttribute("enduser.id", order.CustomerID.String())

	timer := monitoring.NewTimer(h.metrics, "fulfillment", http.MethodGet)
	start := time.Now()
	resp, err := h.client.Get(ctx, h.downstreamURL)
	upstreamMS := time.Since(start).Milliseconds()

	if err != nil || resp.IsError() {
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode())
		}
		timer.Stop(status)
		h.metrics.RecordOrderServed("upstream_error")
		h.metrics.RecordServiceError("fulfillment", http.MethodGet, classifyUpstreamError(err, resp))
		log.Warn("Downstream fulfillment failed",
			zap.String("order_id", orderID),
			zap.Int64("upstream_ms", upstreamMS),
			zap.Error(err),
		)
		if err != nil {
			c.Error(err)
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    "fulfillment unavailable",
			"order_id": orderID,
		})
		return
	}
	timer.Stop(strconv.Itoa(resp.StatusCode()))

	span.SetAttribute("app.upstream_ms", upstreamMS)

	h.metrics.RecordOrderServed("ok")
	log.Info("Order served",
		zap.String("order_id", orderID),
		zap.Int64("upstream_ms", upstreamMS),
	)

	c.JSON(http.StatusOK, gin.H{
		"order":       order,
		"status":      "ok",
		"upstream_ms": upstreamMS,
	})
}

func classifyUpstreamError(err error, resp *resty.Response) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "circuit_open"
	case err != nil:
		return "transport"
	case resp.StatusCode() >= http.StatusInternalServerError:
		return "server_error"
	default:
		return "client_error"
	}
}
