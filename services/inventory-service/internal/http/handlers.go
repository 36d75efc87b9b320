// Package httpx exposes inventory queries, manual restocking and direct
// reservation management.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"kafka-ecommerce/services/inventory-service/internal/inventory"
	"kafka-ecommerce/shared/pkg/models"
)

type Handlers struct {
	Manager *inventory.Manager
	Log     zerolog.Logger
}

func (h *Handlers) ListProducts(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Manager.Products())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Manager.Product(chi.URLParam(r, "id"))
	if errors.Is(err, inventory.ErrUnknownProduct) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

type restockRequest struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

func (h *Handlers) Restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 && req.Name == "" && req.PriceCents == 0 {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}
	p := h.Manager.AddProduct(chi.URLParam(r, "id"), req.Name, req.Quantity, req.PriceCents)
	h.writeJSON(w, http.StatusOK, p)
}

type reservationRequest struct {
	OrderID string             `json:"order_id"`
	Items   []models.OrderItem `json:"items"`
}

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" || len(req.Items) == 0 {
		http.Error(w, "order_id and items are required", http.StatusBadRequest)
		return
	}

	res, short, err := h.Manager.Reserve(req.OrderID, req.Items)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if len(short) > 0 {
		h.writeJSON(w, http.StatusConflict, map[string]any{
			"reason":             models.ReasonInsufficientInventory,
			"insufficient_items": short,
		})
		return
	}
	h.writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Manager.Reservation(chi.URLParam(r, "id"))
	if errors.Is(err, inventory.ErrReservationMissing) {
		http.Error(w, "reservation not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

type releaseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "manual"
	}

	id := chi.URLParam(r, "id")
	if !h.Manager.Release(id, req.Reason) {
		http.Error(w, "reservation not active", http.StatusConflict)
		return
	}
	res, err := h.Manager.Reservation(id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Manager.Stats())
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handlers) serverError(w http.ResponseWriter, err error) {
	h.Log.Error().Err(err).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
