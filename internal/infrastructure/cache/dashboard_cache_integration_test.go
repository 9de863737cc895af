//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oksasatya/clientsphere/internal/application"
	"github.com/oksasatya/clientsphere/internal/infrastructure/cache"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

var redisAddr string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		panic(err)
	}
	redisAddr = fmt.Sprintf("%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestDashboardCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := helpers.NewRedisClient(redisAddr, "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	c := cache.NewDashboardCache(rdb, time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := application.Dashboard{TotalCustomers: 3, NewLast30Days: 1, GeneratedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, c.Set(ctx, want))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.TotalCustomers, got.TotalCustomers)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
