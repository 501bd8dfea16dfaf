package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nyos/apr/internal/interfaces/http/dto"
)

// Pinger is a dependency whose reachability the health check reports
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler handles health and liveness endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	ledger    Pinger
}

// NewSystemHandler creates a new SystemHandler. ledger may be nil when
// the run ledger is disabled.
func NewSystemHandler(version string, ledger Pinger) *SystemHandler {
	return &SystemHandler{
		version:   version,
		startTime: time.Now(),
		ledger:    ledger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Ledger    string `json:"ledger"`
}

// Health reports the service version and, when a run ledger is attached,
// whether it answers a ping. An unreachable ledger degrades the service
// to 503.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Ledger:    "disabled",
	}

	status := http.StatusOK
	if h.ledger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ledger.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Ledger = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Ledger = "ok"
		}
	}

	c.JSON(status, dto.NewSuccessResponse(resp))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a liveness probe.
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
