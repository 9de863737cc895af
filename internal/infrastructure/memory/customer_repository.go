package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/clientsphere/internal/domain"
	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/internal/domain/repository"
)

// CustomerRepository keeps customers in process memory.
// The email index plays the role of the unique constraint in Postgres.
type CustomerRepository struct {
	mu      sync.RWMutex
	items   map[string]entity.Customer
	byEmail map[string]string
	now     func() time.Time
}

// Option customizes a CustomerRepository.
type Option func(*CustomerRepository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *CustomerRepository) { r.now = now }
}

// NewCustomerRepository returns an empty in-memory store for local runs and tests.
func NewCustomerRepository(opts ...Option) *CustomerRepository {
	r := &CustomerRepository{
		items:   make(map[string]entity.Customer),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidCustomerID
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

// FindOne answers email lookups from the email index and scans otherwise.
func (r *CustomerRepository) FindOne(ctx context.Context, f repository.CustomerFilter) (*entity.Customer, error) {
	if f.Email != "" {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrStoreUnavailable
		}
		r.mu.RLock()
		defer r.mu.RUnlock()

		c, ok := r.items[r.byEmail[f.Email]]
		if !ok || !matches(c, f) {
			return nil, domain.ErrCustomerNotFound
		}
		return &c, nil
	}
	res, err := r.FindMany(ctx, f, repository.Sort{Field: repository.SortByCreatedAt, Order: repository.SortAsc}, repository.Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, domain.ErrCustomerNotFound
	}
	return &res[0], nil
}

func (r *CustomerRepository) FindMany(ctx context.Context, f repository.CustomerFilter, s repository.Sort, p repository.Page) ([]entity.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	r.mu.RLock()
	result := make([]entity.Customer, 0, len(r.items))
	for _, c := range r.items {
		if matches(c, f) {
			result = append(result, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return less(result[i], result[j], s)
	})

	if p.Offset > 0 {
		if p.Offset >= len(result) {
			return []entity.Customer{}, nil
		}
		result = result[p.Offset:]
	}
	if p.Limit > 0 && len(result) > p.Limit {
		result = result[:p.Limit]
	}
	return result, nil
}

func (r *CustomerRepository) Count(ctx context.Context, f repository.CustomerFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.ErrStoreUnavailable
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, c := range r.items {
		if matches(c, f) {
			n++
		}
	}
	return n, nil
}

func (r *CustomerRepository) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	r.mu.RLock()
	counts := make(map[entity.CustomerStatus]int64)
	for _, c := range r.items {
		counts[c.Status]++
	}
	r.mu.RUnlock()

	out := make([]repository.StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, repository.StatusCount{Status: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c *entity.Customer) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[c.Email]; taken {
		return domain.ErrDuplicateEmail
	}
	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.items[c.ID] = *c
	r.byEmail[c.Email] = c.ID
	return nil
}

func (r *CustomerRepository) UpdateByID(ctx context.Context, c *entity.Customer) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreUnavailable
	}
	if err := checkID(c.ID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[c.ID]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	if owner, taken := r.byEmail[c.Email]; taken && owner != c.ID {
		return domain.ErrDuplicateEmail
	}

	updatedAt := r.now().UTC()
	if updatedAt.Before(current.UpdatedAt) {
		updatedAt = current.UpdatedAt
	}
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = updatedAt

	delete(r.byEmail, current.Email)
	r.byEmail[c.Email] = c.ID
	r.items[c.ID] = *c
	return nil
}

func (r *CustomerRepository) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreUnavailable
	}
	if err := checkID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.items, id)
	delete(r.byEmail, current.Email)
	return nil
}

func matches(c entity.Customer, f repository.CustomerFilter) bool {
	name := strings.ToLower(c.Name)
	if f.NameContains != "" && !strings.Contains(name, strings.ToLower(f.NameContains)) {
		return false
	}
	if f.NamePrefix != "" && !strings.HasPrefix(name, strings.ToLower(f.NamePrefix)) {
		return false
	}
	if f.Status != "" && string(c.Status) != f.Status {
		return false
	}
	if f.Email != "" && c.Email != f.Email {
		return false
	}
	if f.ExcludeID != "" && c.ID == f.ExcludeID {
		return false
	}
	if !f.CreatedSince.IsZero() && c.CreatedAt.Before(f.CreatedSince) {
		return false
	}
	return true
}

func less(a, b entity.Customer, s repository.Sort) bool {
	var cmp int
	switch s.Field {
	case repository.SortByName:
		cmp = strings.Compare(a.Name, b.Name)
	case repository.SortByEmail:
		cmp = strings.Compare(a.Email, b.Email)
	case repository.SortByStatus:
		cmp = strings.Compare(string(a.Status), string(b.Status))
	default:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	}
	if s.Order == repository.SortDesc {
		cmp = -cmp
	}
	if cmp != 0 {
		return cmp < 0
	}
	return a.ID < b.ID
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)
