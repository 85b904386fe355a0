package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/developer-mesh/mcp-github-server/internal/auth"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

// RequireAuth rejects requests that do not carry the gateway credentials
func RequireAuth(authenticator auth.Authenticator, logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator.AuthenticateRequest(c.Request) {
			c.Next()
			return
		}

		logger.Warn("Rejected unauthenticated request", map[string]interface{}{
			"path":        c.Request.URL.Path,
			"remote_addr": c.ClientIP(),
		})
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

// RequestLogger logs every HTTP request after it completes
func RequestLogger(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
