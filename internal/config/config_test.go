package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "POSTGRES_URL", "KAFKA_BROKERS", "RELAY_BATCH_SIZE", "RELAY_INTERVAL", "ORDER_CREATED_TOPIC"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.OrderCreatedTopic != "order.created" {
		t.Errorf("expected order.created topic, got %s", cfg.OrderCreatedTopic)
	}
	if cfg.RelayBatchSize != 100 || cfg.RelayInterval != time.Second {
		t.Errorf("unexpected relay defaults: %d %s", cfg.RelayBatchSize, cfg.RelayInterval)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RELAY_INTERVAL", "250ms")
	t.Setenv("RELAY_BATCH_SIZE", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.RelayInterval != 250*time.Millisecond || cfg.RelayBatchSize != 10 {
		t.Errorf("unexpected relay settings: %d %s", cfg.RelayBatchSize, cfg.RelayInterval)
	}
}

func TestLoad_Malformed(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RELAY_BATCH_SIZE", "many")
	t.Setenv("RELAY_INTERVAL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "RELAY_BATCH_SIZE") || !strings.Contains(err.Error(), "RELAY_INTERVAL") {
		t.Errorf("expected both settings reported, got %v", err)
	}
}

func TestConfig_Require(t *testing.T) {
	cfg := Config{PostgresURL: "postgres://localhost"}

	if err := cfg.Require("POSTGRES_URL"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := cfg.Require("POSTGRES_URL", "JWT_SECRET", "KAFKA_BROKERS")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET, KAFKA_BROKERS") {
		t.Errorf("unexpected error: %v", err)
	}
}
