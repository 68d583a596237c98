// Package requestid tags every request with a correlation id shared by
// the request log, error responses, and queued OTP mail jobs.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation id; an inbound value is trusted and
// echoed back so the dashboard can stitch its own traces.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware assigns each request a correlation id, minting one when the
// client did not send its own.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the correlation id stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
