package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Storage
	DatabaseURI  string
	StoreTimeout time.Duration

	// Auth
	JWTSecret              string
	SocketTicketTTL        time.Duration
	CookieSecure           bool
	AuthRateLimitPerMinute int

	// Live updates
	BroadcastInterval time.Duration

	// Logging
	LogLevel string
	LogFile  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "3000"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		DatabaseURI:            getEnv("DB_URI", "memory://"),
		StoreTimeout:           getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		SocketTicketTTL:        getEnvDuration("WS_TICKET_TTL", time.Minute),
		CookieSecure:           getEnvBool("COOKIE_SECURE", false),
		AuthRateLimitPerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 30),
		BroadcastInterval:      getEnvDuration("BROADCAST_INTERVAL", time.Second),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFile:                getEnv("LOG_FILE", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.BroadcastInterval <= 0 {
		return nil, fmt.Errorf("BROADCAST_INTERVAL must be positive, got %s", cfg.BroadcastInterval)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
