package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-cart-offers/internal/config"
	"github.com/example/ec-cart-offers/internal/infrastructure/kafka"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
	"github.com/example/ec-cart-offers/internal/logger"
	"github.com/example/ec-cart-offers/internal/projection"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.Component("Projector")

	log.Info("starting redemption ledger projector",
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_topic", cfg.KafkaTopic,
		"group_id", cfg.ProjectorGroupID,
	)

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", "error", err)
	}
	defer db.Close()
	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatal("failed to ensure schema", "error", err)
	}

	projector := projection.NewProjector(store.NewPostgresRedemptionLedger(db), log)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ProjectorGroupID, log)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	log.Info("shutting down")
	cancel()
	<-done
}
