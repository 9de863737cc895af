package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlers "github.com/oksasatya/clientsphere/internal/interface/http"
)

// OpsModule serves /healthz and, when enabled, /metrics at the engine root.
type OpsModule struct {
	Health  *handlers.HealthHandler
	Metrics bool
}

func NewOpsModule(h *handlers.HealthHandler, metricsEnabled bool) *OpsModule {
	return &OpsModule{Health: h, Metrics: metricsEnabled}
}

func (m *OpsModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.Health.Healthz)
	if m.Metrics {
		rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}
