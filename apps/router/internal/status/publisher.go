package status

import (
	"time"

	"go.uber.org/zap"
	"swaprouter/apps/router/internal/events"
	"swaprouter/apps/router/internal/model"
	"swaprouter/apps/router/internal/pubsub"
)

// Store is the slice of the order store the publisher needs.
type Store interface {
	UpdateOrderStatus(orderID string, status model.Status, update model.StatusUpdate) error
}

// Publisher records state transitions to the order store and forwards
// them to subscribers. Store writes are best-effort: a persistence
// failure is logged and never propagated, the in-memory pipeline state
// stays authoritative for the run.
type Publisher struct {
	store  Store
	broker *pubsub.Broker
	logger *zap.Logger
}

func NewPublisher(store Store, broker *pubsub.Broker, logger *zap.Logger) *Publisher {
	return &Publisher{store: store, broker: broker, logger: logger}
}

// Publish persists the transition, then broadcasts it.
func (p *Publisher) Publish(orderID string, st model.Status, update model.StatusUpdate) {
	if err := p.store.UpdateOrderStatus(orderID, st, update); err != nil {
		p.logger.Error("Failed to persist status transition",
			zap.String("order_id", orderID),
			zap.String("status", string(st)),
			zap.Error(err))
	}

	event := events.StatusEvent{
		OrderID:   orderID,
		Status:    string(st),
		Timestamp: time.Now().UTC(),
	}
	if update.TxHash != nil {
		event.TxHash = *update.TxHash
	}
	if update.ExecutedPrice != nil {
		event.ExecutedPrice = *update.ExecutedPrice
	}
	if update.LastError != nil {
		event.LastError = *update.LastError
	}
	if update.Attempts != nil {
		event.Attempt = *update.Attempts
	}

	p.broker.Publish(event)
}

// Record persists bookkeeping fields (attempt counts, transient
// failure messages) without broadcasting anything. The status passed
// is the order's current status, unchanged.
func (p *Publisher) Record(orderID string, st model.Status, update model.StatusUpdate) {
	if err := p.store.UpdateOrderStatus(orderID, st, update); err != nil {
		p.logger.Error("Failed to record order fields",
			zap.String("order_id", orderID),
			zap.String("status", string(st)),
			zap.Error(err))
	}
}

// Announce broadcasts a transient notification without touching the
// store. Used for retrying events between execution attempts.
func (p *Publisher) Announce(event events.StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	p.broker.Publish(event)
}
