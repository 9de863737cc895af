package entity

import (
	"slices"
	"time"
)

// CustomerStatus is the pipeline stage of a customer.
type CustomerStatus string

const (
	StatusLead     CustomerStatus = "lead"
	StatusProspect CustomerStatus = "prospect"
	StatusCustomer CustomerStatus = "customer"
	StatusFormer   CustomerStatus = "former"
	StatusInactive CustomerStatus = "inactive"
	StatusCEO      CustomerStatus = "ceo"
)

// DefaultStatus is assigned when a write omits the status.
const DefaultStatus = StatusLead

var allowedStatuses = []CustomerStatus{
	StatusLead,
	StatusProspect,
	StatusCustomer,
	StatusFormer,
	StatusInactive,
	StatusCEO,
}

// AllowedStatuses returns the closed status set in precedence order.
func AllowedStatuses() []CustomerStatus {
	return slices.Clone(allowedStatuses)
}

// Valid reports whether s is a member of the allowed set.
func (s CustomerStatus) Valid() bool {
	return slices.Contains(allowedStatuses, s)
}

// Customer is the aggregate root of the directory.
// ID, CreatedAt and UpdatedAt are owned by the store.
type Customer struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Company   string         `json:"company"`
	Address   string         `json:"address"`
	Status    CustomerStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
