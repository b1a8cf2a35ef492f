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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/marketplace/internal/auth"
	"github.com/joao-fontenele/marketplace/internal/cache"
	"github.com/joao-fontenele/marketplace/internal/carts"
	"github.com/joao-fontenele/marketplace/internal/catalog"
	"github.com/joao-fontenele/marketplace/internal/config"
	"github.com/joao-fontenele/marketplace/internal/httpapi"
	"github.com/joao-fontenele/marketplace/internal/inventory"
	"github.com/joao-fontenele/marketplace/internal/orders"
	"github.com/joao-fontenele/marketplace/internal/store/postgres"
	"github.com/joao-fontenele/marketplace/internal/telemetry"
)

const serviceName = "marketplace-api"

func main() {
	cfg, err := config.Load()
	logger := telemetry.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Require("POSTGRES_URL", "JWT_SECRET"); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var idempotency orders.IdempotencyCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, serviceName)
		defer func() { _ = redisCache.Close() }()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, idempotency keys disabled", "error", err, "addr", cfg.RedisAddr)
		} else {
			idempotency = redisCache
		}
	}

	store := postgres.New(db)
	checkout, err := orders.NewCheckoutEngine(store, cfg.OrderCreatedTopic)
	if err != nil {
		logger.Error("failed to create checkout engine", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:      auth.NewAuthenticator(cfg.JWTSecret, logger),
		Carts:     carts.NewHandler(carts.NewService(store), logger),
		Orders:    orders.NewHandler(checkout, orders.NewLifecycle(store), orders.NewService(store), idempotency, logger),
		Catalog:   catalog.NewHandler(catalog.NewService(store), logger),
		Inventory: inventory.NewHandler(inventory.NewService(store), logger),
		DB:        db,
		Metrics:   metricsHandler,
		Logger:    logger,
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(router, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/metrics" && r.URL.Path != "/healthz"
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting marketplace api", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
