// Package config loads runtime configuration from the environment. A
// .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gridmesh/energymarket/internal/domain"
)

// Config holds all runtime configuration for the energy market.
type Config struct {
	Port     int
	LogLevel string

	// AdminAddress is the singleton administrator capability. Required.
	AdminAddress string

	MatchInterval   time.Duration
	TransferTimeout time.Duration
	VWAPWindow      time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// DatabaseURL enables the PostgreSQL trade and audit archive when
	// non-empty.
	DatabaseURL string

	// RedisAddr enables the balance read cache when non-empty.
	RedisAddr string
	RedisTTL  time.Duration

	// KafkaBrokers enables the trade event publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applies
// defaults, and validates values. It returns an error for any invalid
// value.
func Load() (*Config, error) {
	// Absence of a .env file is not an error.
	_ = godotenv.Load()

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	adminAddress := getStr("ADMIN_ADDRESS", "")
	if adminAddress == "" {
		return nil, fmt.Errorf("ADMIN_ADDRESS is required")
	}
	if !domain.ValidAddress(adminAddress) || adminAddress == domain.ZeroAddress {
		return nil, fmt.Errorf("invalid ADMIN_ADDRESS: %q, must be a non-zero 0x-prefixed 40 hex digit address", adminAddress)
	}

	matchInterval, err := getDuration("MATCH_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_INTERVAL: %w", err)
	}

	transferTimeout, err := getDuration("TRANSFER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSFER_TIMEOUT: %w", err)
	}

	vwapWindow, err := getDuration("VWAP_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid VWAP_WINDOW: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	redisTTL, err := getDuration("REDIS_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	var kafkaBrokers []string
	if v := getStr("KAFKA_BROKERS", ""); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				kafkaBrokers = append(kafkaBrokers, b)
			}
		}
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		AdminAddress:    adminAddress,
		MatchInterval:   matchInterval,
		TransferTimeout: transferTimeout,
		VWAPWindow:      vwapWindow,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
		DatabaseURL:     getStr("DATABASE_URL", ""),
		RedisAddr:       getStr("REDIS_ADDR", ""),
		RedisTTL:        redisTTL,
		KafkaBrokers:    kafkaBrokers,
		KafkaTopic:      getStr("KAFKA_TOPIC", "energymarket.trades"),
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
