package application

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/clientsphere/internal/domain"
	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/internal/domain/identity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
	"github.com/oksasatya/clientsphere/pkg/validation"
)

// DefaultStoreTimeout bounds every store call when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

const outcomeOK = "ok"

// Recorder receives one observation per directory operation.
type Recorder interface {
	Observe(op, outcome string, d time.Duration)
}

// CustomerService is the directory engine. It holds no state between calls;
// all state lives in Repo.
type CustomerService struct {
	Repo         repo.CustomerRepository
	Validator    *validation.Validator
	Logger       *logrus.Logger
	StoreTimeout time.Duration

	// Optional collaborators; nil disables the feature.
	Events    EventPublisher
	Cache     DashboardCache
	Suggester Suggester
	Metrics   Recorder

	now func() time.Time
	// dashGen counts dashboard invalidations in this process.
	dashGen atomic.Uint64
}

func NewCustomerService(r repo.CustomerRepository, logger *logrus.Logger, storeTimeout time.Duration) *CustomerService {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CustomerService{
		Repo:         r,
		Validator:    validation.New(),
		Logger:       logger,
		StoreTimeout: storeTimeout,
		now:          time.Now,
	}
}

func (s *CustomerService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.StoreTimeout)
}

func (s *CustomerService) observe(op, outcome string, start time.Time) {
	if s.Metrics != nil {
		s.Metrics.Observe(op, outcome, time.Since(start))
	}
}

// fail classifies err, logs it according to its kind and records the outcome.
func (s *CustomerService) fail(ctx context.Context, op string, start time.Time, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = classify(op, err)
	}
	entry := s.Logger.WithFields(logrus.Fields{"op": op, "actor": identity.ActorID(ctx)})
	switch e.Kind {
	case KindUnexpected:
		entry.WithError(err).Error("customer directory failure")
	case KindStoreUnavailable:
		entry.WithError(err).Warn("customer store unavailable")
	}
	s.observe(op, string(e.Kind), start)
	return e
}

// List returns one page of the directory. It never fails: store errors are
// logged and degrade to an empty page that still echoes the applied query.
func (s *CustomerService) List(ctx context.Context, p ListParams) DirectoryPage {
	const op = "customer.list"
	start := time.Now()
	q := buildListQuery(p)

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var (
		records []entity.Customer
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.Repo.FindMany(gctx, q.filter, q.sort, q.window)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.Repo.Count(gctx, q.filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"op":     op,
			"search": q.search,
			"status": q.status,
			"page":   q.page,
		}).Warn("list customers degraded to empty page")
		s.observe(op, "degraded", start)
		return q.result(nil, 0)
	}

	s.observe(op, outcomeOK, start)
	return q.result(records, total)
}

// GetByID fails with KindNotFound for both absent and malformed ids;
// errors.Is(err, domain.ErrInvalidCustomerID) tells them apart.
func (s *CustomerService) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	const op = "customer.get"
	start := time.Now()

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	c, err := s.Repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, s.fail(ctx, op, start, err)
	}
	s.observe(op, outcomeOK, start)
	return c, nil
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*entity.Customer, error) {
	const op = "customer.create"
	start := time.Now()

	in, fields := ValidateCustomerInput(s.Validator, in)
	if len(fields) > 0 {
		return nil, s.fail(ctx, op, start, validationFailed(op, fields))
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.ensureEmailAvailable(sctx, in.Email, ""); err != nil {
		return nil, s.fail(ctx, op, start, err)
	}

	c := &entity.Customer{}
	in.applyTo(c)
	// The unique constraint still decides races the pre-check cannot see.
	if err := s.Repo.Insert(sctx, c); err != nil {
		return nil, s.fail(ctx, op, start, err)
	}

	s.Logger.WithFields(logrus.Fields{
		"customer_id": c.ID,
		"actor":       identity.ActorID(ctx),
	}).Info("customer created")
	s.afterMutation(ctx, EventCustomerCreated, c.ID, c)
	s.observe(op, outcomeOK, start)
	return c, nil
}

// Update replaces every client-writable attribute of the customer.
func (s *CustomerService) Update(ctx context.Context, id string, in CustomerInput) (*entity.Customer, error) {
	const op = "customer.update"
	start := time.Now()
	id = strings.TrimSpace(id)

	in, fields := ValidateCustomerInput(s.Validator, in)
	if len(fields) > 0 {
		return nil, s.fail(ctx, op, start, validationFailed(op, fields))
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	c, err := s.Repo.FindByID(sctx, id)
	if err != nil {
		return nil, s.fail(ctx, op, start, err)
	}
	if err := s.ensureEmailAvailable(sctx, in.Email, c.ID); err != nil {
		return nil, s.fail(ctx, op, start, err)
	}

	in.applyTo(c)
	if err := s.Repo.UpdateByID(sctx, c); err != nil {
		return nil, s.fail(ctx, op, start, err)
	}

	s.Logger.WithFields(logrus.Fields{
		"customer_id": c.ID,
		"actor":       identity.ActorID(ctx),
	}).Info("customer updated")
	s.afterMutation(ctx, EventCustomerUpdated, c.ID, c)
	s.observe(op, outcomeOK, start)
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	const op = "customer.delete"
	start := time.Now()
	id = strings.TrimSpace(id)

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.Repo.DeleteByID(sctx, id); err != nil {
		return s.fail(ctx, op, start, err)
	}

	s.Logger.WithFields(logrus.Fields{
		"customer_id": id,
		"actor":       identity.ActorID(ctx),
	}).Info("customer deleted")
	s.afterMutation(ctx, EventCustomerDeleted, id, nil)
	s.observe(op, outcomeOK, start)
	return nil
}

// ensureEmailAvailable is a fast-path rejection only.
func (s *CustomerService) ensureEmailAvailable(ctx context.Context, email, excludeID string) error {
	_, err := s.Repo.FindOne(ctx, repo.CustomerFilter{Email: email, ExcludeID: excludeID})
	switch {
	case err == nil:
		return domain.ErrDuplicateEmail
	case domain.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func (s *CustomerService) afterMutation(ctx context.Context, typ EventType, id string, c *entity.Customer) {
	s.invalidateDashboard(ctx)
	var snapshot *entity.Customer
	if c != nil {
		cp := *c
		snapshot = &cp
	}
	s.publish(ctx, typ, id, snapshot)
}
