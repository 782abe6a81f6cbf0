// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the runtime settings of the inventory service.
type Config struct {
	Port            string
	ServiceName     string
	StoreDriver     string
	DatabaseURL     string
	ConnectAttempts int
	EnsureSchema    bool

	LogLevel  string
	LogFormat string

	OtelEnabled  bool
	OtelEndpoint string

	ShutdownTimeout time.Duration
}

// Load collects configuration from environment with defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		ServiceName:     getEnv("SERVICE_NAME", "inventory-service"),
		StoreDriver:     getEnv("STORE_DRIVER", DriverPostgres),
		DatabaseURL:     getEnv("DATABASE_URL", defaultDSN()),
		ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 30),
		EnsureSchema:    getEnvBool("DB_ENSURE_SCHEMA", true),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		OtelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT", 15)) * time.Second,
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: use %q or %q", c.StoreDriver, DriverPostgres, DriverMemory)
	}
	if c.ConnectAttempts < 1 {
		return fmt.Errorf("DB_CONNECT_ATTEMPTS must be >= 1, got %d", c.ConnectAttempts)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func defaultDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DATABASE_USER", "root"),
		getEnv("DATABASE_PASSWORD", "pass"),
		getEnv("DATABASE_HOST", "localhost"),
		getEnv("DATABASE_PORT", "5432"),
		getEnv("DATABASE_NAME", "inventory_db"),
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}
