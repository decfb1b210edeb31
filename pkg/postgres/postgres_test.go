package postgres

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDSNCarriesLockTimeout(t *testing.T) {
	cfg := &Config{
		Host:        "localhost",
		Port:        "5432",
		User:        "app",
		Password:    "secret",
		DBName:      "fulfillment",
		SSLMode:     "disable",
		LockTimeout: 5 * time.Second,
	}

	dsn := buildDSN(cfg)
	if !strings.Contains(dsn, "options='-c lock_timeout=5000'") {
		t.Fatalf("expected lock_timeout in milliseconds in dsn, got %q", dsn)
	}
	if !strings.Contains(dsn, "host=localhost port=5432 user=app password=secret dbname=fulfillment sslmode=disable") {
		t.Fatalf("connection fields missing from dsn: %q", dsn)
	}
}

func TestBuildDSNOmitsZeroLockTimeout(t *testing.T) {
	dsn := buildDSN(&Config{Host: "localhost", Port: "5432", User: "app", DBName: "fulfillment", SSLMode: "disable"})
	if strings.Contains(dsn, "lock_timeout") {
		t.Fatalf("unexpected lock_timeout in dsn: %q", dsn)
	}
}
