package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kafka-ecommerce/services/payment-service/internal/gateway"
	"kafka-ecommerce/services/payment-service/internal/worker"
	"kafka-ecommerce/shared/pkg/bus"
	"kafka-ecommerce/shared/pkg/config"
	"kafka-ecommerce/shared/pkg/logger"
	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/metrics"
	"kafka-ecommerce/shared/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("payment-service", cfg.Common.LogLevel)

	b, err := bus.New(bus.Config{
		Kind:      cfg.Bus.Kind,
		Brokers:   cfg.Kafka.Brokers,
		ClientID:  cfg.Kafka.ClientID,
		RabbitURL: cfg.Rabbit.URL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("bus connect failed")
	}
	defer func() { _ = b.Close() }()

	producer := messaging.NewProducer(b, log)
	w := &worker.Consumer{
		Gateway:  gateway.NewSimulatedGateway(cfg.Payment.Seed),
		Producer: producer,
		Log:      log,
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &messaging.Consumer{
		Bus:        b,
		Log:        log,
		Topics:     []string{models.TopicPaymentsRequested},
		Group:      "payment-service",
		Handler:    w.Handle,
		WindowSize: cfg.Consumer.DedupWindow,
	}
	go func() {
		if err := consumer.Run(appCtx); err != nil {
			log.Fatal().Err(err).Msg("consumer failed")
		}
	}()

	r := chi.NewRouter()
	r.Use(metrics.Middleware("payment-service"))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Str("bus", cfg.Bus.Kind).Msg("payment-service started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown...")

	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
