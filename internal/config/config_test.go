package config

import (
	"os"
	"testing"
	"time"
)

const testAdmin = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "ADMIN_ADDRESS", "MATCH_INTERVAL",
		"TRANSFER_TIMEOUT", "VWAP_WINDOW", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "DATABASE_URL", "REDIS_ADDR",
		"REDIS_TTL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", testAdmin)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.AdminAddress != testAdmin {
		t.Errorf("AdminAddress = %q", cfg.AdminAddress)
	}
	if cfg.MatchInterval != 1*time.Second {
		t.Errorf("MatchInterval = %v, want 1s", cfg.MatchInterval)
	}
	if cfg.TransferTimeout != 5*time.Second {
		t.Errorf("TransferTimeout = %v, want 5s", cfg.TransferTimeout)
	}
	if cfg.VWAPWindow != 5*time.Minute {
		t.Errorf("VWAPWindow = %v, want 5m", cfg.VWAPWindow)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.DatabaseURL != "" || cfg.RedisAddr != "" || len(cfg.KafkaBrokers) != 0 {
		t.Errorf("optional backends enabled by default: %+v", cfg)
	}
	if cfg.KafkaTopic != "energymarket.trades" {
		t.Errorf("KafkaTopic = %q", cfg.KafkaTopic)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", testAdmin)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MATCH_INTERVAL", "250ms")
	t.Setenv("TRANSFER_TIMEOUT", "2s")
	t.Setenv("DATABASE_URL", "postgres://localhost/market")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MatchInterval != 250*time.Millisecond {
		t.Errorf("MatchInterval = %v", cfg.MatchInterval)
	}
	if cfg.TransferTimeout != 2*time.Second {
		t.Errorf("TransferTimeout = %v", cfg.TransferTimeout)
	}
	if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
		t.Errorf("optional backends not picked up: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-port"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad interval", "MATCH_INTERVAL", "fast"},
		{"bad timeout", "TRANSFER_TIMEOUT", "5"},
		{"malformed admin", "ADMIN_ADDRESS", "alice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ADMIN_ADDRESS", testAdmin)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_AdminRequired(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Error("expected error when ADMIN_ADDRESS is unset")
	}

	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", "0x0000000000000000000000000000000000000000")
	if _, err := Load(); err == nil {
		t.Error("expected error for the zero address")
	}
}
