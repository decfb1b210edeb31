package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Server.HTTPPort != ":8084" {
		t.Errorf("HTTPPort = %q, want :8084", cfg.Server.HTTPPort)
	}
	if cfg.Postgres.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", cfg.Postgres.MaxOpenConns)
	}
	if cfg.Fulfillment.StaleSessionAfter != 2*time.Hour {
		t.Errorf("StaleSessionAfter = %s, want 2h", cfg.Fulfillment.StaleSessionAfter)
	}
	if cfg.Fulfillment.CASMaxRetries != 3 {
		t.Errorf("CASMaxRetries = %d, want 3", cfg.Fulfillment.CASMaxRetries)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("Brokers = %v, want [localhost:9092]", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", ":9000")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "42")
	t.Setenv("LOGGER_DISABLE_CALLER", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FULFILLMENT_STALE_AFTER", "45m")

	cfg := LoadEnv()

	if cfg.Server.HTTPPort != ":9000" {
		t.Errorf("HTTPPort = %q, want :9000", cfg.Server.HTTPPort)
	}
	if cfg.Postgres.MaxOpenConns != 42 {
		t.Errorf("MaxOpenConns = %d, want 42", cfg.Postgres.MaxOpenConns)
	}
	if !cfg.Logger.DisableCaller {
		t.Error("DisableCaller must be true")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}
	if cfg.Fulfillment.StaleSessionAfter != 45*time.Minute {
		t.Errorf("StaleSessionAfter = %s, want 45m", cfg.Fulfillment.StaleSessionAfter)
	}
}

func TestLoadEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "lots")
	t.Setenv("FULFILLMENT_STALE_AFTER", "soon")

	cfg := LoadEnv()

	if cfg.Postgres.MaxOpenConns != 10 {
		t.Errorf("malformed int must fall back, got %d", cfg.Postgres.MaxOpenConns)
	}
	if cfg.Fulfillment.StaleSessionAfter != 2*time.Hour {
		t.Errorf("malformed duration must fall back, got %s", cfg.Fulfillment.StaleSessionAfter)
	}
}
