package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	OpenWeatherAPIKey string

	// RefreshInterval controls how often favorite-city snapshots refresh.
	RefreshInterval time.Duration

	// In-memory snapshot retention.
	SnapshotMaxHistory int           // max snapshots per city (0 = unlimited)
	SnapshotMaxAge     time.Duration // max snapshot age (0 = unlimited)

	// RedisAddr selects the document store backend. Empty means in-memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL time.Duration

	UploadDir string

	GeocodeCacheSize int

	LogLevel  string
	LogFormat string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	// Snapshot refresh interval: default 15 minutes.
	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	// Snapshot retention.
	cfg.SnapshotMaxHistory = getenvInt("SNAPSHOT_MAX_HISTORY", 96)

	maxAgeStr := getenvDefault("SNAPSHOT_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_MAX_AGE: %w", err)
	}
	cfg.SnapshotMaxAge = maxAge

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	ttlStr := getenvDefault("SESSION_TTL", "168h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = ttl

	cfg.UploadDir = getenvDefault("UPLOAD_DIR", "uploads")
	cfg.GeocodeCacheSize = getenvInt("GEOCODE_CACHE_SIZE", 256)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
