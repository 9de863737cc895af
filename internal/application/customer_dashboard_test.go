package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/internal/domain/identity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context) (*Dashboard, bool, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(*Dashboard)
	return d, args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, d Dashboard) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// hookRepo runs onCountByStatus before delegating, to interleave a mutation
// with a dashboard computation.
type hookRepo struct {
	repo.CustomerRepository
	onCountByStatus func()
}

func (h *hookRepo) CountByStatus(ctx context.Context) ([]repo.StatusCount, error) {
	if h.onCountByStatus != nil {
		h.onCountByStatus()
	}
	return h.CustomerRepository.CountByStatus(ctx)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, body any) error {
	return m.Called(ctx, body).Error(0)
}

func TestCustomerService_Dashboard(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	mustCreate(t, svc, "Old Lead", "old@x.com", entity.StatusLead)
	clock.Advance(45 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		mustCreate(t, svc, fmt.Sprintf("Prospect %d", i), fmt.Sprintf("p%d@x.com", i), entity.StatusProspect)
	}
	for i := 0; i < 3; i++ {
		mustCreate(t, svc, fmt.Sprintf("Lead %d", i), fmt.Sprintf("l%d@x.com", i), entity.StatusLead)
	}
	newest := mustCreate(t, svc, "Chief", "ceo@x.com", entity.StatusCEO)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 8, d.TotalCustomers)
	assert.EqualValues(t, 7, d.NewLast30Days)
	assert.Equal(t, []repo.StatusCount{
		{Status: entity.StatusLead, Count: 4},
		{Status: entity.StatusProspect, Count: 3},
		{Status: entity.StatusCEO, Count: 1},
	}, d.ByStatus)
	require.Len(t, d.Recent, 5)
	assert.Equal(t, newest.ID, d.Recent[0].ID)
	for i := 1; i < len(d.Recent); i++ {
		assert.True(t, d.Recent[i-1].CreatedAt.After(d.Recent[i].CreatedAt))
	}
}

func TestCustomerService_DashboardEmptyStore(t *testing.T) {
	svc, _ := newService(t)

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.TotalCustomers)
	assert.NotNil(t, d.ByStatus)
	assert.NotNil(t, d.Recent)
}

func TestCustomerService_DashboardCache(t *testing.T) {
	t.Run("hit skips the store", func(t *testing.T) {
		store := &mockRepo{}
		cache := &mockCache{}
		cached := &Dashboard{TotalCustomers: 42}
		cache.On("Get", mock.Anything).Return(cached, true, nil)

		svc := NewCustomerService(store, quietLogger(), time.Second)
		svc.Cache = cache

		d, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		assert.Same(t, cached, d)
		store.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
	})

	t.Run("miss computes and stores", func(t *testing.T) {
		svc, _ := newService(t)
		cache := &mockCache{}
		cache.On("Get", mock.Anything).Return(nil, false, nil)
		cache.On("Set", mock.Anything, mock.MatchedBy(func(d Dashboard) bool { return d.TotalCustomers == 0 })).Return(nil)
		svc.Cache = cache

		_, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors are bypassed", func(t *testing.T) {
		svc, _ := newService(t)
		cache := &mockCache{}
		cache.On("Get", mock.Anything).Return(nil, false, errors.New("redis down"))
		cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis down"))
		svc.Cache = cache

		d, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, d)
	})

	t.Run("mutations invalidate", func(t *testing.T) {
		svc, _ := newService(t)
		cache := &mockCache{}
		cache.On("Invalidate", mock.Anything).Return(nil).Times(3)
		svc.Cache = cache

		c := mustCreate(t, svc, "Ada", "ada@x.com", entity.StatusLead)
		_, err := svc.Update(context.Background(), c.ID, CustomerInput{Name: "Ada", Email: "ada@x.com"})
		require.NoError(t, err)
		require.NoError(t, svc.Delete(context.Background(), c.ID))

		cache.AssertExpectations(t)
	})

	t.Run("mutation during computation skips the write", func(t *testing.T) {
		base, _ := newService(t)
		store := &hookRepo{CustomerRepository: base.Repo}
		svc := NewCustomerService(store, quietLogger(), time.Second)
		cache := &mockCache{}
		cache.On("Get", mock.Anything).Return(nil, false, nil)
		cache.On("Invalidate", mock.Anything).Return(nil).Once()
		svc.Cache = cache
		store.onCountByStatus = func() { svc.invalidateDashboard(context.Background()) }

		_, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
		cache.AssertExpectations(t)
	})

	t.Run("invalidation racing the write drops it", func(t *testing.T) {
		svc, _ := newService(t)
		cache := &mockCache{}
		cache.On("Get", mock.Anything).Return(nil, false, nil)
		cache.On("Set", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
			svc.dashGen.Add(1)
		}).Once()
		cache.On("Invalidate", mock.Anything).Return(nil).Once()
		svc.Cache = cache

		_, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("failed mutations leave the cache alone", func(t *testing.T) {
		svc, _ := newService(t)
		cache := &mockCache{}
		svc.Cache = cache

		_, err := svc.Create(context.Background(), CustomerInput{})
		require.Error(t, err)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything)
	})
}

func TestCustomerService_PublishesEvents(t *testing.T) {
	svc, _ := newService(t)
	pub := &mockPublisher{}
	svc.Events = pub

	var events []CustomerEvent
	pub.On("PublishJSON", mock.Anything, mock.AnythingOfType("application.CustomerEvent")).
		Run(func(args mock.Arguments) { events = append(events, args.Get(1).(CustomerEvent)) }).
		Return(nil)

	ctx := identity.WithCaller(context.Background(), identity.Caller{UserID: "user-7"})
	c, err := svc.Create(ctx, CustomerInput{Name: "Ada", Email: "ada@x.com"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, c.ID, CustomerInput{Name: "Ada K", Email: "ada@x.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, c.ID))

	require.Len(t, events, 3)
	assert.Equal(t, EventCustomerCreated, events[0].Type)
	assert.Equal(t, "Ada", events[0].Customer.Name)
	assert.Equal(t, EventCustomerUpdated, events[1].Type)
	assert.Equal(t, "Ada K", events[1].Customer.Name)
	assert.Equal(t, EventCustomerDeleted, events[2].Type)
	assert.Nil(t, events[2].Customer)
	for _, ev := range events {
		assert.Equal(t, c.ID, ev.CustomerID)
		assert.Equal(t, "user-7", ev.Actor)
	}
}

func TestCustomerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	svc, _ := newService(t)
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("channel closed"))
	svc.Events = pub

	_, err := svc.Create(context.Background(), CustomerInput{Name: "Ada", Email: "ada@x.com"})
	assert.NoError(t, err)
	pub.AssertNumberOfCalls(t, "PublishJSON", 1)
}
