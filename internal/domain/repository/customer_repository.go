package repository

import (
	"context"
	"time"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
)

// SortField is a whitelisted sortable attribute.
type SortField string

const (
	SortByName      SortField = "name"
	SortByEmail     SortField = "email"
	SortByStatus    SortField = "status"
	SortByCreatedAt SortField = "createdAt"
)

// Valid reports whether f is one of the sortable attributes.
func (f SortField) Valid() bool {
	switch f {
	case SortByName, SortByEmail, SortByStatus, SortByCreatedAt:
		return true
	}
	return false
}

// SortOrder is either ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort orders a result set. Stores always break ties by id ascending.
type Sort struct {
	Field SortField
	Order SortOrder
}

// Page is an offset window over a sorted result set.
type Page struct {
	Offset int
	Limit  int
}

// CustomerFilter is a conjunction of predicates; zero fields are inactive.
// An empty filter matches every customer.
type CustomerFilter struct {
	// NameContains is a case-insensitive substring match on name.
	NameContains string
	// NamePrefix is a case-insensitive prefix match on name.
	NamePrefix string
	// Status is an equality match; values outside the allowed set match nothing.
	Status string
	// Email is an equality match on the normalized email.
	Email string
	// ExcludeID removes one record from the match set.
	ExcludeID string
	// CreatedSince keeps records created at or after the instant.
	CreatedSince time.Time
}

// StatusCount is one bucket of the per-status aggregate.
type StatusCount struct {
	Status entity.CustomerStatus `json:"status"`
	Count  int64                 `json:"count"`
}

// CustomerRepository is the record store adapter of the directory.
//
// Implementations enforce email uniqueness natively and report violations as
// domain.ErrDuplicateEmail, absent records as domain.ErrCustomerNotFound,
// malformed ids as domain.ErrInvalidCustomerID and transient failures as
// domain.ErrStoreUnavailable.
type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Customer, error)
	FindOne(ctx context.Context, f CustomerFilter) (*entity.Customer, error)
	FindMany(ctx context.Context, f CustomerFilter, s Sort, p Page) ([]entity.Customer, error)
	Count(ctx context.Context, f CustomerFilter) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	// Insert assigns ID, CreatedAt and UpdatedAt on c.
	Insert(ctx context.Context, c *entity.Customer) error
	// UpdateByID replaces the mutable attributes and refreshes UpdatedAt on c.
	UpdateByID(ctx context.Context, c *entity.Customer) error
	DeleteByID(ctx context.Context, id string) error
}
