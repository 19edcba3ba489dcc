// Package trace assigns every request an ID for correlation across
// logs, responses, and downstream calls, and tracks request metrics.
package trace

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKey type for context keys
type ContextKey string

// RequestIDKey is the context key for request ID
const RequestIDKey ContextKey = "request_id"

// Middleware handles request tracing
type Middleware struct {
	requests    int64
	totalMicros int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	AverageResponseTime int64 // in microseconds
}

// NewMiddleware creates a new trace middleware
func NewMiddleware() *Middleware {
	return &Middleware{}
}

// Handler returns gin middleware that tags the request with an ID and
// records timing. Runs before the request logger, which picks the ID up
// from the gin context.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := GenerateRequestID()

		// Make the ID visible to handlers, downstream services and the client.
		ctx := context.WithValue(c.Request.Context(), RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(RequestIDKey), requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		duration := time.Since(start)
		atomic.AddInt64(&m.requests, 1)
		atomic.AddInt64(&m.totalMicros, duration.Microseconds())
	}
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return id.String()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	n := atomic.LoadInt64(&m.requests)
	total := atomic.LoadInt64(&m.totalMicros)
	var avg int64
	if n > 0 {
		avg = total / n
	}
	return Metrics{TotalRequests: n, AverageResponseTime: avg}
}
