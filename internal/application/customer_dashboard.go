package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
)

const (
	dashboardRecentLimit = 5
	dashboardNewWindow   = 30 * 24 * time.Hour
)

// Dashboard is the aggregate overview of the directory.
type Dashboard struct {
	TotalCustomers int64              `json:"total_customers"`
	ByStatus       []repo.StatusCount `json:"by_status"`
	Recent         []entity.Customer  `json:"recent"`
	NewLast30Days  int64              `json:"new_last_30_days"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// DashboardCache stores the last computed Dashboard.
type DashboardCache interface {
	Get(ctx context.Context) (*Dashboard, bool, error)
	Set(ctx context.Context, d Dashboard) error
	Invalidate(ctx context.Context) error
}

func (s *CustomerService) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "customer.dashboard"
	start := time.Now()

	if s.Cache != nil {
		d, ok, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.WithError(err).Warn("dashboard cache read failed")
		} else if ok {
			s.observe(op, "cached", start)
			return d, nil
		}
	}

	gen := s.dashGen.Load()
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	now := s.now().UTC()
	d := Dashboard{GeneratedAt: now}
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		var err error
		d.TotalCustomers, err = s.Repo.Count(gctx, repo.CustomerFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		d.ByStatus, err = s.Repo.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Recent, err = s.Repo.FindMany(gctx, repo.CustomerFilter{},
			repo.Sort{Field: repo.SortByCreatedAt, Order: repo.SortDesc},
			repo.Page{Limit: dashboardRecentLimit})
		return err
	})
	g.Go(func() error {
		var err error
		d.NewLast30Days, err = s.Repo.Count(gctx, repo.CustomerFilter{CreatedSince: now.Add(-dashboardNewWindow)})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, op, start, err)
	}
	if d.ByStatus == nil {
		d.ByStatus = []repo.StatusCount{}
	}
	if d.Recent == nil {
		d.Recent = []entity.Customer{}
	}

	s.storeDashboard(ctx, gen, d)
	s.observe(op, outcomeOK, start)
	return &d, nil
}

// storeDashboard caches d unless a mutation invalidated the dashboard while
// it was being computed. An invalidation racing the write itself is caught by
// the second check, which drops what was just written.
func (s *CustomerService) storeDashboard(ctx context.Context, gen uint64, d Dashboard) {
	if s.Cache == nil || s.dashGen.Load() != gen {
		return
	}
	if err := s.Cache.Set(ctx, d); err != nil {
		s.Logger.WithError(err).Warn("dashboard cache write failed")
		return
	}
	if s.dashGen.Load() != gen {
		s.invalidateDashboard(ctx)
	}
}

func (s *CustomerService) invalidateDashboard(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	s.dashGen.Add(1)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"cache": "dashboard"}).Warn("cache invalidation failed")
	}
}
