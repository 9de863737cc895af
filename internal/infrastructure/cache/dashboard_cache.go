package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/clientsphere/internal/application"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

const dashboardKey = "clientsphere:customers:dashboard"

// DashboardCache keeps the last computed dashboard as JSON in Redis.
type DashboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDashboardCache(rdb *redis.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{rdb: rdb, ttl: ttl}
}

func (c *DashboardCache) Get(ctx context.Context) (*application.Dashboard, bool, error) {
	var d application.Dashboard
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, dashboardKey, &d)
	if err != nil || !ok {
		return nil, false, err
	}
	return &d, true, nil
}

func (c *DashboardCache) Set(ctx context.Context, d application.Dashboard) error {
	return helpers.RedisSetJSON(ctx, c.rdb, dashboardKey, d, c.ttl)
}

func (c *DashboardCache) Invalidate(ctx context.Context) error {
	return helpers.RedisDel(ctx, c.rdb, dashboardKey)
}

var _ application.DashboardCache = (*DashboardCache)(nil)
