package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/marketplace/internal/cache"
	"github.com/joao-fontenele/marketplace/internal/config"
	"github.com/joao-fontenele/marketplace/internal/messaging"
	"github.com/joao-fontenele/marketplace/internal/telemetry"
	"github.com/joao-fontenele/marketplace/internal/worker"
)

const serviceName = "marketplace-worker"

func main() {
	cfg, err := config.Load()
	logger := telemetry.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("KAFKA_BROKERS", "EMAIL_SERVICE_URL"); err != nil {
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

	var processed cache.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, serviceName)
		defer func() { _ = redisCache.Close() }()
		processed = redisCache
	}

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.OrderCreatedTopic, cfg.ConsumerGroup)
	defer func() { _ = consumer.Close() }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	notificationHandler := worker.NewNotificationHandler(cfg.EmailServiceURL, httpClient, processed, logger)

	logger.Info("starting notification worker", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderCreatedTopic)

	if err := consumer.Consume(ctx, notificationHandler.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
