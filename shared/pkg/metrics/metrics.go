// Package metrics registers the Prometheus collectors shared by every
// service and provides the HTTP middleware that records request metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"service", "method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration", Buckets: prometheus.DefBuckets},
		[]string{"service", "method", "route"},
	)

	MessagesProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_messages_produced_total", Help: "Messages successfully published"},
		[]string{"topic"},
	)
	ProduceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_produce_errors_total", Help: "Publish attempts that failed"},
		[]string{"topic"},
	)
	MessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_messages_consumed_total", Help: "Messages handled"},
		[]string{"topic", "group"},
	)
	ConsumeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_consume_errors_total", Help: "Handler failures"},
		[]string{"topic", "group"},
	)
	DuplicatesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_duplicates_skipped_total", Help: "Redeliveries dropped by the dedup window"},
		[]string{"group"},
	)
	DeadLettered = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_dead_lettered_total", Help: "Messages routed to the dead letter queue"},
		[]string{"topic"},
	)

	SagaTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "saga_transitions_total", Help: "Saga state transitions"},
		[]string{"state"},
	)
	SagasActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sagas_active", Help: "Sagas in a non-terminal state"},
	)
	ReservationsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "inventory_reservations_active", Help: "Reservations currently holding stock"},
	)
	ReservationsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "inventory_reservations_expired_total", Help: "Reservations released by the expiry sweep"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal, httpRequestDuration,
		MessagesProduced, ProduceErrors, MessagesConsumed, ConsumeErrors,
		DuplicatesSkipped, DeadLettered,
		SagaTransitions, SagasActive, ReservationsActive, ReservationsExpired,
	)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: 200}
			start := time.Now()
			next.ServeHTTP(sw, r)
			route := routePattern(r)
			httpRequestsTotal.WithLabelValues(service, r.Method, route, strconv.Itoa(sw.status)).Inc()
			httpRequestDuration.WithLabelValues(service, r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
