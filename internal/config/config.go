package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	PublicBaseURL  string // Base URL used when building confirmation/magic links
	AllowedOrigins []string
	MagicLinkTTL   time.Duration
	TokenSweepCron string // Standard cron expression for the token sweeper
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ttlStr := getEnv("MAGIC_LINK_TTL_MINUTES", "15")
	ttlMinutes, err := strconv.Atoi(ttlStr)
	if err != nil {
		return nil, err
	}

	origins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./catalogo.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		AllowedOrigins: origins,
		MagicLinkTTL:   time.Duration(ttlMinutes) * time.Minute,
		TokenSweepCron: getEnv("TOKEN_SWEEP_CRON", "*/10 * * * *"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
