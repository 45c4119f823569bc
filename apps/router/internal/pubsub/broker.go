package pubsub

import (
	"sync"

	"go.uber.org/zap"
	"swaprouter/apps/router/internal/events"
)

// subscriber buffer size; a full buffer drops the event rather than
// blocking the pipeline (delivery is best-effort, at-most-once).
const subscriberBuffer = 16

// Broker fans status events out to per-order subscribers. Safe for
// concurrent Subscribe/Publish/cancel from any goroutine.
type Broker struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[chan events.StatusEvent]struct{}
}

func NewBroker(logger *zap.Logger) *Broker {
	return &Broker{
		logger: logger,
		subs:   make(map[string]map[chan events.StatusEvent]struct{}),
	}
}

// Subscribe registers interest in one order's status events. The
// returned cancel func must be called when the subscriber goes away;
// it closes the channel.
func (b *Broker) Subscribe(orderID string) (<-chan events.StatusEvent, func()) {
	ch := make(chan events.StatusEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[orderID] == nil {
		b.subs[orderID] = make(map[chan events.StatusEvent]struct{})
	}
	b.subs[orderID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[orderID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, orderID)
			}
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers an event to every subscriber of its order.
// Subscribers with a full buffer are skipped.
func (b *Broker) Publish(event events.StatusEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[event.OrderID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropped status event, subscriber buffer full",
				zap.String("order_id", event.OrderID),
				zap.String("status", event.Status))
		}
	}
}

// SubscriberCount reports the live subscriptions for an order.
func (b *Broker) SubscriberCount(orderID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[orderID])
}
