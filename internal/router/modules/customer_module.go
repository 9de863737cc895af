package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/clientsphere/internal/interface/http"
	"github.com/oksasatya/clientsphere/internal/interface/middleware"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

// CustomerModule wires the customer directory routes under /api/customers.
// Every route requires an authenticated caller.
type CustomerModule struct {
	Handler *handlers.CustomerHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewCustomerModule(h *handlers.CustomerHandler, jwt *helpers.JWTManager, rdb *redis.Client) *CustomerModule {
	return &CustomerModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *CustomerModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/customers")
	g.Use(middleware.Auth(m.Redis, m.JWT))
	g.Use(
		middleware.RateLimit(m.Redis, 600, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP()),
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByCallerAndMethod(), nil),
	)

	// writes get a tighter per-caller budget
	writes := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByCaller(), nil)
	{
		g.GET("", m.Handler.List)
		g.GET("/dashboard", m.Handler.Dashboard)
		g.GET("/suggest", m.Handler.Suggest)
		g.GET("/:id", m.Handler.Get)
		g.POST("", writes, m.Handler.Create)
		g.PUT("/:id", writes, m.Handler.Update)
		g.DELETE("/:id", writes, m.Handler.Delete)
	}
}
