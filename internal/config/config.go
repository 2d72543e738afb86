package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is everything the server reads from the environment. Mapbox and
// HubSpot tokens are optional so the service can run in degraded mode on a
// laptop without provider accounts.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisAddr     string
	MapboxToken   string
	HubSpotAPIKey string
	JWTSecret     string
	CORSOrigins   []string
	LogLevel      string
	SyncInterval  time.Duration
}

// Load reads configuration from the environment. Missing required variables
// are reported together rather than one at a time.
func Load() (Config, error) {
	cfg := Config{
		Port:          Get("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		MapboxToken:   os.Getenv("MAPBOX_TOKEN"),
		HubSpotAPIKey: os.Getenv("HUBSPOT_API_KEY"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   splitCSV(Get("CORS_ORIGINS", "http://localhost:5173")),
		LogLevel:      Get("LOG_LEVEL", "info"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	interval, err := time.ParseDuration(Get("SYNC_INTERVAL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INTERVAL: %w", err)
	}
	cfg.SyncInterval = interval

	return cfg, nil
}

// Get returns the environment variable or a fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
