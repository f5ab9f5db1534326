package tracing

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware creates gin middleware that wraps every request in a server
// span. An inbound traceparent header parents the span; without one the
// request roots a new trace. The span covers the whole handler chain,
// so nested spans and outbound client spans hang beneath it, and it is
// ended on every exit path including handler panic.
func Middleware(t *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := []StartOption{WithKind(KindServer)}
		if value := c.GetHeader(TraceParentHeader); value != "" {
			parent, err := ParseTraceParent(value)
			if err != nil {
				t.logger.Debug("ignoring malformed traceparent",
					zap.String("header", value),
					zap.Error(err),
				)
			} else {
				opts = append(opts, WithParent(parent))
			}
		}

		span, ctx := t.StartSpan(c.Request.Context(), serverSpanName(c), opts...)
		span.SetAttribute("http.method", c.Request.Method)
		span.SetAttribute("http.route", routePattern(c))
		span.SetAttribute("http.target", c.Request.URL.Path)
		span.SetAttribute("http.host", c.Request.Host)
		span.SetAttribute("client.address", c.ClientIP())

		// Hand the span to the handler chain and echo the trace id so
		// callers can find their trace.
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", span.Context().TraceID.String())

		defer func() {
			if r := recover(); r != nil {
				span.SetStatus(StatusError)
				span.SetAttribute("panic", fmt.Sprintf("%v", r))
				_ = span.End()
				panic(r)
			}

			status := c.Writer.Status()
			span.SetAttribute("http.status_code", status)
			switch {
			case len(c.Errors) > 0:
				span.RecordError(c.Errors.Last())
			case status >= http.StatusInternalServerError:
				span.SetStatus(StatusError)
			default:
				span.SetStatus(StatusOK)
			}
			_ = span.End()
		}()

		c.Next()
	}
}

// serverSpanName builds "<METHOD> <route>" from the matched route
// pattern, falling back to the raw path for unmatched requests.
func serverSpanName(c *gin.Context) string {
	return c.Request.Method + " " + routePattern(c)
}

func routePattern(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}
