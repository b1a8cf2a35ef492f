package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/joao-fontenele/marketplace/internal/config"
	"github.com/joao-fontenele/marketplace/internal/messaging"
	"github.com/joao-fontenele/marketplace/internal/outbox"
	"github.com/joao-fontenele/marketplace/internal/store/postgres"
	"github.com/joao-fontenele/marketplace/internal/telemetry"
)

const serviceName = "marketplace-relay"

func main() {
	cfg, err := config.Load()
	logger := telemetry.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("POSTGRES_URL", "KAFKA_BROKERS"); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	producer := messaging.NewProducer(cfg.KafkaBrokers)
	defer func() { _ = producer.Close() }()

	relay, err := outbox.NewRelay(postgres.New(db), producer, cfg.RelayBatchSize, cfg.RelayInterval, logger)
	if err != nil {
		logger.Error("failed to create relay", "error", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           metricsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() { _ = metricsServer.Close() }()

	logger.Info("starting outbox relay", "brokers", cfg.KafkaBrokers, "batch_size", cfg.RelayBatchSize, "interval", cfg.RelayInterval)

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("relay error", "error", err)
		os.Exit(1)
	}
	logger.Info("relay stopped")
}
