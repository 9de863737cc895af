package worker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clientsphere/internal/application"
)

// EventApplier projects customer events onto a read model.
type EventApplier interface {
	Apply(ctx context.Context, ev application.CustomerEvent) error
}

// IndexConsumer keeps the search index in sync with customer change events.
type IndexConsumer struct {
	Index   EventApplier
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewIndexConsumer(index EventApplier, logger *logrus.Logger) *IndexConsumer {
	return &IndexConsumer{Index: index, Logger: logger, Timeout: 15 * time.Second}
}

// Run consumes until msgs is closed or ctx is done.
func (w *IndexConsumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			w.Handle(ctx, msg)
		}
	}
}

// Handle acks applied events, drops undecodable ones and requeues the rest
// once. A redelivered message that fails again is dropped.
func (w *IndexConsumer) Handle(ctx context.Context, msg amqp.Delivery) {
	var ev application.CustomerEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil || ev.CustomerID == "" {
		w.Logger.WithError(err).WithField("delivery_tag", msg.DeliveryTag).Warn("bad customer event")
		_ = msg.Nack(false, false)
		return
	}

	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Index.Apply(c, ev); err != nil {
		fields := logrus.Fields{"customer_id": ev.CustomerID, "type": ev.Type, "redelivered": msg.Redelivered}
		w.Logger.WithError(err).WithFields(fields).Error("apply customer event failed")
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	w.Logger.WithFields(logrus.Fields{"customer_id": ev.CustomerID, "type": ev.Type}).Debug("customer event applied")
	_ = msg.Ack(false)
}
