// Package config reads service settings from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

type Config struct {
	Port              string
	LogLevel          string
	ServiceVersion    string
	PostgresURL       string
	JWTSecret         string
	RedisAddr         string
	KafkaBrokers      []string
	OrderCreatedTopic string
	ConsumerGroup     string
	EmailServiceURL   string
	EmailLatency      time.Duration
	OTLPEndpoint      string
	RelayBatchSize    int
	RelayInterval     time.Duration
	MigrationsPath    string
}

// Load reads the configuration. It only fails on values that are present
// but malformed; each binary checks the settings it needs with Require.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		ServiceVersion:    getenv("SERVICE_VERSION", "0.1.0"),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		OrderCreatedTopic: getenv("ORDER_CREATED_TOPIC", domain.TopicOrderCreated),
		ConsumerGroup:     getenv("CONSUMER_GROUP", "notification-worker"),
		EmailServiceURL:   os.Getenv("EMAIL_SERVICE_URL"),
		OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		MigrationsPath:    getenv("MIGRATIONS_PATH", "file://migrations"),
	}

	var errs []error
	var err error
	if cfg.RelayBatchSize, err = intEnv("RELAY_BATCH_SIZE", 100); err != nil {
		errs = append(errs, err)
	}
	if cfg.RelayInterval, err = durationEnv("RELAY_INTERVAL", time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.EmailLatency, err = durationEnv("EMAIL_LATENCY", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.RelayBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_BATCH_SIZE must be positive"))
	}

	return cfg, errors.Join(errs...)
}

// Require reports every named setting that is empty.
func (c Config) Require(names ...string) error {
	values := map[string]bool{
		"POSTGRES_URL":      c.PostgresURL != "",
		"JWT_SECRET":        c.JWTSecret != "",
		"REDIS_ADDR":        c.RedisAddr != "",
		"KAFKA_BROKERS":     len(c.KafkaBrokers) > 0,
		"EMAIL_SERVICE_URL": c.EmailServiceURL != "",
	}

	var missing []string
	for _, name := range names {
		if !values[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
