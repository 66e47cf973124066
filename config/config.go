package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	// HTTP API
	APIPort    int
	CORSOrigin string
	LogLevel   string

	// Database configuration
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Scheduling
	FetchSchedule string // cron spec for the nightly fetch
	Timezone      string

	// Ingestion
	Ingest IngestConfig

	// Patterns
	ResetConsecutiveOnSell bool // opt-in: zero consecutive_buys when a SELL is recorded
}

// IngestConfig holds ingestion pipeline parameters.
// The delays are rate-limiting courtesy towards the exchange sites,
// not a correctness mechanism; both are configurable.
type IngestConfig struct {
	NSEBaseURL   string
	BSEBaseURL   string
	RequestDelay time.Duration // between upstream HTTP requests
	RecordDelay  time.Duration // between per-record inserts
	HTTPTimeout  time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	return &Config{
		APIPort:    getEnvInt("PORT", 3001),
		CORSOrigin: getEnvOrDefault("CORS_ORIGIN", "*"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),

		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvInt("DB_PORT", 5432),
		DatabaseName:     getEnvOrDefault("DB_NAME", "smartflow"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "smartflow"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "smartflow123"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// 18:00 IST Mon-Fri, after market close and disclosure publication
		FetchSchedule: getEnvOrDefault("FETCH_SCHEDULE", "0 18 * * 1-5"),
		Timezone:      getEnvOrDefault("TIMEZONE", "Asia/Kolkata"),

		Ingest: IngestConfig{
			NSEBaseURL:   getEnvOrDefault("NSE_BASE_URL", "https://www.nseindia.com"),
			BSEBaseURL:   getEnvOrDefault("BSE_BASE_URL", "https://www.bseindia.com"),
			RequestDelay: time.Duration(getEnvInt("FETCH_REQUEST_DELAY_MS", 2000)) * time.Millisecond,
			RecordDelay:  time.Duration(getEnvInt("FETCH_RECORD_DELAY_MS", 100)) * time.Millisecond,
			HTTPTimeout:  time.Duration(getEnvInt("FETCH_HTTP_TIMEOUT_MS", 30000)) * time.Millisecond,
		},

		ResetConsecutiveOnSell: getEnvOrDefault("RESET_CONSECUTIVE_ON_SELL", "false") == "true",
	}
}

// PostgresDSN builds the connection string shared by GORM and the
// advisory-lock connection.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.DatabaseHost, c.DatabasePort, c.DatabaseName, c.DatabaseUser, c.DatabasePassword)
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
