package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware validates the X-API-Key header against the configured
// key. Authentication proper (users, roles) lives upstream of this
// service; the key only fences the engine's HTTP surface.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			abortWithError(c, http.StatusUnauthorized, "Missing API key")
			return
		}
		if key != apiKey {
			abortWithError(c, http.StatusForbidden, "Invalid API key")
			return
		}
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
