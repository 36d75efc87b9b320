package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kafka-ecommerce/shared/pkg/metrics"
)

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware("inventory-service"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", Health)
	r.Get("/inventory", h.ListProducts)
	r.Get("/inventory/{id}", h.GetProduct)
	r.Put("/inventory/{id}", h.Restock)
	r.Post("/reservations", h.CreateReservation)
	r.Get("/reservations/{id}", h.GetReservation)
	r.Post("/reservations/{id}/release", h.ReleaseReservation)
	r.Get("/stats", h.GetStats)
	return r
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
