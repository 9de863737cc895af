package router

import (
	"context"

	"github.com/oksasatya/clientsphere/internal/application"
	"github.com/oksasatya/clientsphere/internal/container"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
	"github.com/oksasatya/clientsphere/internal/infrastructure/cache"
	"github.com/oksasatya/clientsphere/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/clientsphere/internal/infrastructure/postgres"
	"github.com/oksasatya/clientsphere/internal/infrastructure/search"
	handlers "github.com/oksasatya/clientsphere/internal/interface/http"
	"github.com/oksasatya/clientsphere/internal/router/modules"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

type CustomerModuleDeps struct {
	Repo    repo.CustomerRepository
	Service *application.CustomerService
	Handler *handlers.CustomerHandler
}

// customerRepository picks postgres when a pool was provided, memory otherwise.
func customerRepository() repo.CustomerRepository {
	if pool := container.GetPGPool(); pool != nil {
		return pginfra.NewCustomerRepository(pool)
	}
	return memory.NewCustomerRepository()
}

func buildCustomerDeps() CustomerModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	r := customerRepository()

	service := application.NewCustomerService(r, logger, cfg.StoreTimeout)
	if rdb := container.GetRedis(); rdb != nil {
		service.Cache = cache.NewDashboardCache(rdb, cfg.DashboardCacheTTL)
	}
	if pub := container.GetRabbitPub(); pub != nil {
		service.Events = pub
	}
	if es := container.GetES(); es != nil {
		service.Suggester = search.NewCustomerIndex(es, cfg.ESCustomersIndex, logger)
	}
	if m := container.GetMetrics(); m != nil {
		service.Metrics = m
	}

	return CustomerModuleDeps{
		Repo:    r,
		Service: service,
		Handler: handlers.NewCustomerHandler(service, logger),
	}
}

func healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if es := container.GetES(); es != nil {
		checks["elasticsearch"] = func(ctx context.Context) error { return helpers.PingES(ctx, es) }
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	customerDeps := buildCustomerDeps()

	r.AddRoot(modules.NewOpsModule(handlers.NewHealthHandler(healthChecks()), cfg.MetricsEnabled))
	r.Add(modules.NewCustomerModule(customerDeps.Handler, container.GetJWT(), container.GetRedis()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
