package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Store backend selection: the first configured of DatabaseURL,
	// RedisURL, SQLitePath wins; with none set the in-memory store is
	// used (single-process, nothing survives a restart).
	DatabaseURL string
	RedisURL    string
	SQLitePath  string

	StorePrefix string

	// Bridge timing
	PollInterval    time.Duration
	ReemitDelay     time.Duration
	CleanupInterval time.Duration
	Retention       time.Duration

	// Rate limiting (webhook ingest; requires Redis)
	RateLimitWhitelist []string
}

// Load reads configuration from environment variables. In development it
// loads from a .env file if present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "3000"),
		Env:             getEnv("ENV", "development"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		StorePrefix:     getEnv("STORE_PREFIX", "404ai:"),
		PollInterval:    getDuration("POLL_INTERVAL", time.Second),
		ReemitDelay:     getDuration("REEMIT_DELAY", 100*time.Millisecond),
		CleanupInterval: getDuration("CLEANUP_INTERVAL", time.Hour),
		Retention:       getDuration("RETENTION", 24*time.Hour),
	}

	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
