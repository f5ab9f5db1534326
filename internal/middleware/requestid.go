package middleware

import (
	"github.com/GriffinCanCode/tracewire/internal/shared/id"
	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the correlation ID assigned to each request.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

// RequestID assigns a ULID-based correlation ID to each request and
// echoes it on the response. Inbound IDs are passed through unchanged.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = id.NewRequestID().String()
		}

		c.Set(RequestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)

		c.Next()
	}
}

// RequestIDFromContext returns the request ID assigned by RequestID,
// or an empty string when the middleware is not installed.
func RequestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
