// Package httpx is the order intake API: POST /orders mints an order id
// and starts the saga by publishing orders.created.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/metrics"
	"kafka-ecommerce/shared/pkg/models"
)

type Handlers struct {
	Producer *messaging.Producer
	Log      zerolog.Logger
}

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware("order-service"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", Health)
	r.Post("/orders", h.CreateOrder)
	return r
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type createOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Items      []models.OrderItem `json:"items"`
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.CustomerID == "" || len(req.Items) == 0 {
		http.Error(w, "customer_id and items are required", http.StatusBadRequest)
		return
	}

	var total int64
	for _, it := range req.Items {
		total += int64(it.Quantity) * it.UnitPriceCents
	}

	orderID := uuid.NewString()
	created := models.NewOrderCreated(orderID, req.CustomerID, req.Items, total)
	if err := messaging.Send(r.Context(), h.Producer, models.TopicOrdersCreated, created); err != nil {
		h.Log.Error().Err(err).Str("order_id", orderID).Msg("order publish failed")
		http.Error(w, "order could not be accepted", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"order_id":    orderID,
		"total_cents": total,
		"status":      "created",
	})
}
