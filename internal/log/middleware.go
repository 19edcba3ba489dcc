package log

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestLogger returns gin middleware that attaches a request-scoped logger
// to the context and emits structured start/completion records. Completion
// level escalates to Warn for 4xx and Error for 5xx.
func RequestLogger(logger *Logger) gin.HandlerFunc {
	httpLogger := logger.WithComponent(ComponentHTTP)
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString(FieldRequestID)

		reqLogger := httpLogger.With(FieldRequestID, requestID)
		ctx := context.WithValue(c.Request.Context(), LoggerContextKey, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		startFields := NewFields().
			WithHTTPRequest(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery, c.Request.UserAgent()).
			WithClientIP(c.ClientIP())
		reqLogger.DebugContext(ctx, "request started", startFields.ToSlice()...)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		endFields := NewFields().
			WithHTTPRequest(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery, "").
			WithHTTPResponse(status, time.Since(start).Milliseconds(), status < 400).
			WithClientIP(c.ClientIP()).
			WithRequestID(requestID)
		if len(c.Errors) > 0 {
			endFields[FieldError] = c.Errors.String()
		}
		reqLogger.Logger.Log(ctx, level, "request completed", endFields.ToSlice()...)
	}
}
