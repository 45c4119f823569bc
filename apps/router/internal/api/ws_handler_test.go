package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"swaprouter/apps/router/internal/events"
	"swaprouter/apps/router/internal/pubsub"
	"swaprouter/apps/router/internal/queue"
)

func dialWS(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.StatusEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event events.StatusEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read websocket frame: %v", err)
	}
	return event
}

func TestStreamOrder(t *testing.T) {
	t.Run("StreamsBrokerEvents", func(t *testing.T) {
		store := newFakeStore()
		q := queue.NewMemoryQueue(0, zap.NewNop())
		defer q.Close()
		broker := pubsub.NewBroker(zap.NewNop())

		server := httptest.NewServer(newTestServer(store, q, broker))
		defer server.Close()

		conn := dialWS(t, server, "/api/orders/ws?orderId=o1")
		defer conn.Close()

		if event := readEvent(t, conn); event.Status != "ws_connected" {
			t.Fatalf("Expected ws_connected frame, got %s", event.Status)
		}

		// Subscription registration races the first publish; wait for it.
		deadline := time.Now().Add(time.Second)
		for broker.SubscriberCount("o1") == 0 {
			if time.Now().After(deadline) {
				t.Fatal("Subscription never registered")
			}
			time.Sleep(5 * time.Millisecond)
		}

		broker.Publish(events.StatusEvent{OrderID: "o1", Status: "routing"})
		if event := readEvent(t, conn); event.Status != "routing" {
			t.Fatalf("Expected routing event, got %s", event.Status)
		}

		broker.Publish(events.StatusEvent{
			OrderID:       "o1",
			Status:        "confirmed",
			TxHash:        "0xabc",
			ExecutedPrice: 100.5,
		})
		event := readEvent(t, conn)
		if event.Status != "confirmed" {
			t.Fatalf("Expected confirmed event, got %s", event.Status)
		}
		if event.TxHash != "0xabc" || event.ExecutedPrice != 100.5 {
			t.Errorf("Confirmed event missing execution fields: %+v", event)
		}
	})

	t.Run("PollsStoreForUnknownOrder", func(t *testing.T) {
		store := newFakeStore()
		q := queue.NewMemoryQueue(0, zap.NewNop())
		defer q.Close()
		broker := pubsub.NewBroker(zap.NewNop())

		server := httptest.NewServer(newTestServer(store, q, broker))
		defer server.Close()

		conn := dialWS(t, server, "/api/orders/ws?orderId=missing")
		defer conn.Close()

		if event := readEvent(t, conn); event.Status != "ws_connected" {
			t.Fatalf("Expected ws_connected frame, got %s", event.Status)
		}

		// The 700ms poll reports the unknown id.
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var event events.StatusEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("Failed to read poll frame: %v", err)
		}
		if event.Status != "not_found" {
			t.Fatalf("Expected not_found frame, got %s", event.Status)
		}
	})

	t.Run("RequiresOrderID", func(t *testing.T) {
		store := newFakeStore()
		q := queue.NewMemoryQueue(0, zap.NewNop())
		defer q.Close()
		broker := pubsub.NewBroker(zap.NewNop())

		server := httptest.NewServer(newTestServer(store, q, broker))
		defer server.Close()

		conn := dialWS(t, server, "/api/orders/ws")
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var payload map[string]string
		if err := conn.ReadJSON(&payload); err != nil {
			t.Fatalf("Failed to read error frame: %v", err)
		}
		if payload["error"] == "" {
			t.Fatalf("Expected error frame, got %v", payload)
		}
	})
}
