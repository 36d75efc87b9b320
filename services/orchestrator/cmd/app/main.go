package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpx "kafka-ecommerce/services/orchestrator/internal/http"
	"kafka-ecommerce/services/orchestrator/internal/saga"
	"kafka-ecommerce/shared/pkg/bus"
	"kafka-ecommerce/shared/pkg/cache"
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
	log := logger.New("orchestrator", cfg.Common.LogLevel)

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

	store, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("saga store init failed")
	}
	defer cleanup()

	producer := messaging.NewProducer(b, log)
	orc := saga.NewOrchestrator(store, producer, log, cfg.Saga.Timeout)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumers := []*messaging.Consumer{
		{
			Bus:        b,
			Log:        log,
			Topics:     []string{models.TopicOrdersCreated, models.TopicOrdersValidated},
			Group:      "orchestrator.order-events",
			Handler:    orc.HandleOrderEvent,
			WindowSize: cfg.Consumer.DedupWindow,
		},
		{
			Bus:        b,
			Log:        log,
			Topics:     []string{models.TopicInventoryReserved, models.TopicInventoryReleased},
			Group:      "orchestrator.inventory-events",
			Handler:    orc.HandleInventoryEvent,
			WindowSize: cfg.Consumer.DedupWindow,
		},
		{
			Bus:        b,
			Log:        log,
			Topics:     []string{models.TopicPaymentsCompleted, models.TopicPaymentsFailed},
			Group:      "orchestrator.payment-events",
			Handler:    orc.HandlePaymentEvent,
			WindowSize: cfg.Consumer.DedupWindow,
		},
	}
	for _, c := range consumers {
		c := c
		go func() {
			if err := c.Run(appCtx); err != nil {
				log.Fatal().Err(err).Str("group", c.Group).Msg("consumer failed")
			}
		}()
	}

	monitor := &saga.TimeoutMonitor{Orc: orc, Log: log, Interval: cfg.Saga.SweepInterval}
	go monitor.Run(appCtx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(&httpx.Handlers{Orc: orc, Log: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	log.Info().Str("bus", cfg.Bus.Kind).Str("store", cfg.Saga.Store).Msg("orchestrator started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutdown...")

	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}

// buildStore assembles the saga store from SAGA_STORE and, when REDIS_ADDR
// is set, wraps it in the read-through cache.
func buildStore(cfg config.Config, log zerolog.Logger) (saga.Store, func(), error) {
	var (
		store   saga.Store
		cleanup = func() {}
	)
	switch cfg.Saga.Store {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pg, err := saga.NewPGStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, cleanup = pg, pg.Close
	default:
		store = saga.NewMemoryStore()
	}

	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.TTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, saga cache disabled")
		} else {
			store = saga.NewCachedStore(store, c, log)
			inner := cleanup
			cleanup = func() { _ = c.Close(); inner() }
		}
	}
	return store, cleanup, nil
}
