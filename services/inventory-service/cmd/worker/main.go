package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpx "kafka-ecommerce/services/inventory-service/internal/http"
	"kafka-ecommerce/services/inventory-service/internal/inventory"
	"kafka-ecommerce/services/inventory-service/internal/worker"
	"kafka-ecommerce/shared/pkg/bus"
	"kafka-ecommerce/shared/pkg/config"
	"kafka-ecommerce/shared/pkg/logger"
	"kafka-ecommerce/shared/pkg/messaging"
	"kafka-ecommerce/shared/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("inventory-service", cfg.Common.LogLevel)

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

	manager := inventory.NewManager(cfg.Inventory.ReservationTTL)
	inventory.SeedCatalog(manager)

	producer := messaging.NewProducer(b, log)
	w := &worker.Consumer{Manager: manager, Producer: producer, Log: log}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &messaging.Consumer{
		Bus: b,
		Log: log,
		Topics: []string{
			models.TopicOrdersValidated,
			models.TopicPaymentsFailed,
			models.TopicOrdersFailed,
			models.TopicOrdersCompleted,
		},
		Group:      "inventory-service",
		Handler:    w.Handle,
		WindowSize: cfg.Consumer.DedupWindow,
	}
	go func() {
		if err := consumer.Run(appCtx); err != nil {
			log.Fatal().Err(err).Msg("consumer failed")
		}
	}()

	sweeper := &worker.Sweeper{
		Manager:  manager,
		Producer: producer,
		Log:      log,
		Interval: cfg.Inventory.SweepInterval,
	}
	go sweeper.Run(appCtx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(&httpx.Handlers{Manager: manager, Log: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Str("bus", cfg.Bus.Kind).Msg("inventory-service started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown...")

	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
