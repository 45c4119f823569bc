package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"swaprouter/apps/router/internal/model"
	"swaprouter/apps/router/internal/queue"
)

const defaultSlippage = 0.01

// OrderStore is the slice of the order store the gateway needs.
type OrderStore interface {
	CreateOrder(order model.Order) error
	GetOrderByID(orderID string) (*model.Order, error)
}

// OrderHandler handles order submission and lookup
type OrderHandler struct {
	store  OrderStore
	queue  queue.Queue
	logger *zap.Logger
}

func NewOrderHandler(store OrderStore, q queue.Queue, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{store: store, queue: q, logger: logger}
}

// ExecuteOrder handles POST /api/orders/execute
func (h *OrderHandler) ExecuteOrder(w http.ResponseWriter, r *http.Request) {
	var req ExecuteOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.TokenIn == "" || req.TokenOut == "" || req.AmountIn == 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_fields", "token_in, token_out and amount_in are required")
		return
	}

	if req.AmountIn < 0 {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_amount", "amount_in must be positive")
		return
	}

	if req.Type != "" && req.Type != model.OrderTypeMarket {
		h.writeErrorResponse(w, http.StatusBadRequest, "unsupported_order_type", "Only market orders are supported")
		return
	}

	slippage := defaultSlippage
	if req.Slippage != nil {
		slippage = *req.Slippage
	}

	order := model.Order{
		ID:        uuid.New().String(),
		Type:      model.OrderTypeMarket,
		TokenIn:   req.TokenIn,
		TokenOut:  req.TokenOut,
		AmountIn:  req.AmountIn,
		Slippage:  slippage,
		Status:    model.StatusReceived,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateOrder(order); err != nil {
		h.logger.Error("Failed to persist order", zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to create order")
		return
	}

	if err := h.queue.Enqueue(model.Job{OrderID: order.ID}); err != nil {
		h.logger.Error("Failed to enqueue order", zap.String("order_id", order.ID), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "queue_error", "Failed to enqueue order")
		return
	}

	h.logger.Info("Accepted order",
		zap.String("order_id", order.ID),
		zap.String("token_in", order.TokenIn),
		zap.String("token_out", order.TokenOut),
		zap.Float64("amount_in", order.AmountIn))

	h.writeJSONResponse(w, http.StatusOK, ExecuteOrderResponse{OrderID: order.ID})
}

// GetOrder handles GET /api/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID := vars["order_id"]

	order, err := h.store.GetOrderByID(orderID)
	if err != nil {
		h.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to retrieve order")
		return
	}

	if order == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "order_not_found", "Order not found")
		return
	}

	response := OrderResponse{
		OrderID:       order.ID,
		Type:          order.Type,
		TokenIn:       order.TokenIn,
		TokenOut:      order.TokenOut,
		AmountIn:      order.AmountIn,
		Slippage:      order.Slippage,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		Attempts:      order.Attempts,
		LastError:     order.LastError,
		ExecutedPrice: order.ExecutedPrice,
		TxHash:        order.TxHash,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response with the specified status code
func (h *OrderHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeErrorResponse writes an error response
func (h *OrderHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResponse := ErrorResponse{
		Error:   errorCode,
		Message: message,
	}
	h.writeJSONResponse(w, statusCode, errorResponse)
}
