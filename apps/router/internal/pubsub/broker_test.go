package pubsub

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"swaprouter/apps/router/internal/events"
)

func TestBroker(t *testing.T) {
	logger := zap.NewNop()

	t.Run("DeliversToOrderSubscribers", func(t *testing.T) {
		b := NewBroker(logger)
		sub, cancel := b.Subscribe("o1")
		defer cancel()

		b.Publish(events.StatusEvent{OrderID: "o1", Status: "pending"})

		select {
		case event := <-sub:
			if event.Status != "pending" {
				t.Errorf("Expected status pending, got %s", event.Status)
			}
		case <-time.After(time.Second):
			t.Fatal("Event not delivered")
		}
	})

	t.Run("DoesNotCrossOrders", func(t *testing.T) {
		b := NewBroker(logger)
		sub, cancel := b.Subscribe("o1")
		defer cancel()

		b.Publish(events.StatusEvent{OrderID: "o2", Status: "pending"})

		select {
		case event := <-sub:
			t.Fatalf("Unexpected event for other order: %+v", event)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("CancelClosesChannel", func(t *testing.T) {
		b := NewBroker(logger)
		sub, cancel := b.Subscribe("o1")

		cancel()
		if _, ok := <-sub; ok {
			t.Fatal("Expected closed channel after cancel")
		}
		if n := b.SubscriberCount("o1"); n != 0 {
			t.Errorf("Expected 0 subscribers after cancel, got %d", n)
		}

		// Cancel is idempotent and publish after cancel is a no-op.
		cancel()
		b.Publish(events.StatusEvent{OrderID: "o1", Status: "pending"})
	})

	t.Run("FullSubscriberNeverBlocksPublish", func(t *testing.T) {
		b := NewBroker(logger)
		_, cancel := b.Subscribe("o1")
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < subscriberBuffer*3; i++ {
				b.Publish(events.StatusEvent{OrderID: "o1", Status: "pending"})
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a full subscriber")
		}
	})

	t.Run("ConcurrentSubscribePublish", func(t *testing.T) {
		b := NewBroker(logger)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				orderID := fmt.Sprintf("o%d", n%5)
				sub, cancel := b.Subscribe(orderID)
				b.Publish(events.StatusEvent{OrderID: orderID, Status: "pending"})
				select {
				case <-sub:
				case <-time.After(time.Second):
				}
				cancel()
			}(i)
		}
		wg.Wait()
	})
}
