package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status  HealthStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status            HealthStatus               `json:"status"`
	Timestamp         time.Time                  `json:"timestamp"`
	Version           string                     `json:"version"`
	Uptime            float64                    `json:"uptime_seconds"`
	ActiveConnections int                        `json:"active_connections"`
	Components        map[string]ComponentHealth `json:"components,omitempty"`
}

// LivenessResponse represents a simple liveness check response
type LivenessResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Alive     bool         `json:"alive"`
}

// DispatchTable is the part of the method registry the health checker reads
type DispatchTable interface {
	Count() int
	Verify() error
}

// ConnectionCounter reports open transport connections
type ConnectionCounter interface {
	ActiveConnections() int
}

// HealthChecker serves the gateway's health probes
type HealthChecker struct {
	table       DispatchTable
	connections ConnectionCounter
	logger      observability.Logger
	version     string
	startTime   time.Time

	mu            sync.RWMutex
	lastReadiness *HealthResponse
	lastCheck     time.Time
	cacheTTL      time.Duration
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(table DispatchTable, connections ConnectionCounter, logger observability.Logger, version string) *HealthChecker {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &HealthChecker{
		table:       table,
		connections: connections,
		logger:      logger,
		version:     version,
		startTime:   time.Now(),
		cacheTTL:    5 * time.Second,
	}
}

// RegisterRoutes registers health check routes with the Gin router
func (h *HealthChecker) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.Health)
	router.GET("/health/live", h.Liveness)
	router.GET("/health/ready", h.Readiness)
}

// Liveness only fails if the process cannot answer at all
func (h *HealthChecker) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Alive:     true,
	})
}

// Health returns the uncached readiness report
func (h *HealthChecker) Health(c *gin.Context) {
	response := h.checkReadiness()
	c.JSON(statusCode(response.Status), response)
}

// Readiness reports whether the gateway can serve traffic. Results are
// cached briefly so probes do not contend with request handling.
func (h *HealthChecker) Readiness(c *gin.Context) {
	h.mu.RLock()
	if h.lastReadiness != nil && time.Since(h.lastCheck) < h.cacheTTL {
		cached := h.lastReadiness
		h.mu.RUnlock()
		c.JSON(statusCode(cached.Status), cached)
		return
	}
	h.mu.RUnlock()

	response := h.checkReadiness()

	h.mu.Lock()
	h.lastReadiness = response
	h.lastCheck = time.Now()
	h.mu.Unlock()

	if response.Status == HealthStatusUnhealthy {
		h.logger.Warn("Readiness check failed", map[string]interface{}{
			"components": response.Components,
		})
	}
	c.JSON(statusCode(response.Status), response)
}

func statusCode(status HealthStatus) int {
	if status == HealthStatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *HealthChecker) checkReadiness() *HealthResponse {
	components := map[string]ComponentHealth{
		"dispatch_table": h.checkDispatchTable(),
		"mcp_handler":    h.checkHandler(),
	}

	overall := HealthStatusHealthy
	for _, component := range components {
		switch component.Status {
		case HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	var active int
	if h.connections != nil {
		active = h.connections.ActiveConnections()
	}

	return &HealthResponse{
		Status:            overall,
		Timestamp:         time.Now(),
		Version:           h.version,
		Uptime:            time.Since(h.startTime).Seconds(),
		ActiveConnections: active,
		Components:        components,
	}
}

func (h *HealthChecker) checkDispatchTable() ComponentHealth {
	if h.table == nil {
		return ComponentHealth{
			Status:  HealthStatusUnhealthy,
			Message: "Dispatch table is not initialized",
		}
	}

	details := map[string]interface{}{"method_count": h.table.Count()}
	if err := h.table.Verify(); err != nil {
		details["error"] = err.Error()
		return ComponentHealth{
			Status:  HealthStatusUnhealthy,
			Message: "Dispatch table is incomplete",
			Details: details,
		}
	}

	return ComponentHealth{
		Status:  HealthStatusHealthy,
		Message: "Dispatch table complete",
		Details: details,
	}
}

func (h *HealthChecker) checkHandler() ComponentHealth {
	if h.connections == nil {
		return ComponentHealth{
			Status:  HealthStatusUnhealthy,
			Message: "MCP handler is not initialized",
		}
	}
	return ComponentHealth{
		Status:  HealthStatusHealthy,
		Message: "MCP handler operational",
		Details: map[string]interface{}{
			"active_connections": h.connections.ActiveConnections(),
		},
	}
}
