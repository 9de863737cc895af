package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/clientsphere/pkg/response"
)

// Pinger is any dependency that can report its own reachability.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	Checks  map[string]Pinger
	Timeout time.Duration
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{Checks: checks, Timeout: 2 * time.Second}
}

// Healthz reports 200 when every registered check passes, 503 otherwise.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	status := make(map[string]string, len(h.Checks))
	healthy := true
	for name, ping := range h.Checks {
		if err := ping(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", status)
		return
	}
	response.Success(c, http.StatusOK, status, "healthy", nil)
}
