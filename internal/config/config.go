// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory ledger if not set)

	// Liveness classifier
	LivenessURL string // External classifier endpoint (optional, heuristic fallback if not set)

	// Analyzer
	HistoryWindowDays int // Window for the recent existing-case set

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for traces (optional)

	// Security
	RateLimitRPM   int   // Requests per client per minute
	MaxUploadBytes int64 // Request body cap for sample uploads
}

// Defaults
const (
	DefaultPort              = "8080"
	DefaultEnv               = "development"
	DefaultLogLevel          = "info"
	DefaultHistoryWindowDays = 90
	DefaultRateLimitRPM      = 120
	DefaultMaxUploadBytes    = 5 << 20 // 5MB, plenty for fingerprint captures
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", DefaultPort),
		Env:               getEnv("ENV", DefaultEnv),
		LogLevel:          getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LivenessURL:       os.Getenv("LIVENESS_URL"),
		HistoryWindowDays: int(getEnvInt64("HISTORY_WINDOW_DAYS", DefaultHistoryWindowDays)),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:      int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.HistoryWindowDays <= 0 {
		return fmt.Errorf("HISTORY_WINDOW_DAYS must be positive, got %d", c.HistoryWindowDays)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive, got %d", c.RateLimitRPM)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
