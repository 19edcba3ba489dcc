// Package cors lets browser clients on the configured origins call the
// API with credentials.
package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware returns gin middleware implementing an allow-list CORS
// policy. Requests from unlisted origins get no CORS headers, the
// browser refuses them on its own.
func Middleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimSuffix(origin, "/")] = true
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Add("Vary", "Origin")

		origin := c.Request.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Credentials", "true")
			headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			headers.Set("Access-Control-Max-Age", "300")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
