package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"swaprouter/apps/router/internal/events"
	"swaprouter/apps/router/internal/pubsub"
)

const (
	// Interval for the store-poll fallback that catches a subscriber
	// up on the latest persisted status.
	pollInterval = 700 * time.Millisecond

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is handled by the server middleware
		return true
	},
}

// WSHandler streams one order's status events over a WebSocket.
// Delivery is best-effort and at-most-once per transition; a late
// subscriber misses earlier transitions but the store poll sends the
// latest persisted status whenever it changes.
type WSHandler struct {
	store  OrderStore
	broker *pubsub.Broker
	logger *zap.Logger
}

func NewWSHandler(store OrderStore, broker *pubsub.Broker, logger *zap.Logger) *WSHandler {
	return &WSHandler{store: store, broker: broker, logger: logger}
}

// StreamOrder handles GET /api/orders/ws?orderId={id}
func (h *WSHandler) StreamOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	if orderID == "" {
		h.send(conn, map[string]string{"error": "orderId required as query param"})
		return
	}

	sub, cancel := h.broker.Subscribe(orderID)
	defer cancel()

	h.send(conn, events.StatusEvent{
		OrderID:   orderID,
		Status:    "ws_connected",
		Timestamp: time.Now().UTC(),
	})

	// Read pump: we only care about the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastSentStatus string

	for {
		select {
		case <-done:
			return

		case event, ok := <-sub:
			if !ok {
				return
			}
			if !h.send(conn, event) {
				return
			}
			lastSentStatus = event.Status

		case <-ticker.C:
			order, err := h.store.GetOrderByID(orderID)
			if err != nil {
				h.logger.Error("Failed to poll order for websocket",
					zap.String("order_id", orderID),
					zap.Error(err))
				continue
			}
			if order == nil {
				if !h.send(conn, events.StatusEvent{OrderID: orderID, Status: "not_found", Timestamp: time.Now().UTC()}) {
					return
				}
				continue
			}
			if string(order.Status) == lastSentStatus {
				continue
			}

			event := events.StatusEvent{
				OrderID:   order.ID,
				Status:    string(order.Status),
				Timestamp: time.Now().UTC(),
			}
			if order.TxHash != nil {
				event.TxHash = *order.TxHash
			}
			if order.ExecutedPrice != nil {
				event.ExecutedPrice = *order.ExecutedPrice
			}
			if order.LastError != nil {
				event.LastError = *order.LastError
			}

			if !h.send(conn, event) {
				return
			}
			lastSentStatus = event.Status
		}
	}
}

// send writes one JSON frame, reporting whether the connection is
// still usable.
func (h *WSHandler) send(conn *websocket.Conn, payload interface{}) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(payload); err != nil {
		h.logger.Debug("Failed to write websocket frame", zap.Error(err))
		return false
	}
	return true
}
