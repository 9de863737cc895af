package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/internal/domain/identity"
)

type EventType string

const (
	EventCustomerCreated EventType = "customer.created"
	EventCustomerUpdated EventType = "customer.updated"
	EventCustomerDeleted EventType = "customer.deleted"
)

// CustomerEvent is published after every committed mutation.
// Customer is nil for deletions.
type CustomerEvent struct {
	Type       EventType        `json:"type"`
	CustomerID string           `json:"customer_id"`
	Customer   *entity.Customer `json:"customer,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
	Actor      string           `json:"actor"`
}

// EventPublisher is satisfied by helpers.RabbitPublisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

const publishTimeout = 2 * time.Second

// publish is best effort: the mutation is already committed.
func (s *CustomerService) publish(ctx context.Context, typ EventType, id string, c *entity.Customer) {
	if s.Events == nil {
		return
	}
	ev := CustomerEvent{
		Type:       typ,
		CustomerID: id,
		Customer:   c,
		OccurredAt: s.now().UTC(),
		Actor:      identity.ActorID(ctx),
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.PublishJSON(ctx, ev); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"customer_id": id,
			"event":       typ,
		}).Warn("publish customer event failed")
	}
}
