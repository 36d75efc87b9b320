package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kafka-ecommerce/shared/pkg/metrics"
)

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware("orchestrator"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", Health)
	r.Get("/sagas", h.ListSagas)
	r.Get("/sagas/{id}", h.GetSaga)
	r.Post("/sagas/{id}/cancel", h.CancelSaga)
	r.Get("/stats", h.GetStats)
	return r
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
