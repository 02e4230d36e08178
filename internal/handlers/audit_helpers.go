package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

// requestIDFromContext returns the request correlation id, minting one when
// neither the context nor the X-Request-ID header carries it.
func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext returns the authenticated user id set by the auth
// middleware, or nil on unauthenticated routes.
func userIDFromContext(c *gin.Context) *int {
	if val, ok := c.Get("userID"); ok {
		if userID, ok := val.(int); ok && userID > 0 {
			return &userID
		}
	}

	if header := c.GetHeader("X-User-ID"); header != "" {
		if parsed, err := strconv.Atoi(header); err == nil && parsed > 0 {
			return &parsed
		}
	}
	return nil
}
