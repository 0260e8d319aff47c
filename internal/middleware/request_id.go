package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"passkeeper/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id and puts it on the request
// context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
