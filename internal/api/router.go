package api

import (
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/developer-mesh/mcp-github-server/internal/auth"
	"github.com/developer-mesh/mcp-github-server/internal/mcp"
	"github.com/developer-mesh/mcp-github-server/internal/middleware"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Handler       *mcp.Handler
	Health        *HealthChecker
	Authenticator auth.Authenticator
	Logger        observability.Logger
	// AllowedOrigins are host patterns accepted on cross-origin /ws upgrades.
	// Empty means only same-host browser origins are accepted.
	AllowedOrigins []string
	// Gatherer backs /metrics; the route is omitted when nil
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine serving /ws, /rpc, health probes and metrics
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(router)
	}
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.RequireAuth(cfg.Authenticator, logger)

	router.GET("/ws", requireAuth, func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns: cfg.AllowedOrigins,
		})
		if err != nil {
			logger.Error("WebSocket upgrade failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		cfg.Handler.HandleConnection(c.Request.Context(), conn)
	})

	router.POST("/rpc", requireAuth, middleware.RequireJSON(), gin.WrapF(cfg.Handler.HandleHTTP))

	return router
}
