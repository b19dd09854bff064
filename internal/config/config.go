package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port           int
	LogLevel       string
	AllowedOrigins []string

	// Procurement backend
	BackendAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Workspaces (draft + session user) and dashboard cache
	WorkspaceTTL      time.Duration
	DashboardCacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Browser session cookie
	SessionSecret       string
	SessionCookieName   string
	SessionCookieSecure bool
	SessionTTL          time.Duration

	// Token store
	TokenStore    string // memory | redis
	RedisURL      string
	RedisPassword string

	// Catalog & uploads
	CatalogPath          string
	ProfilePictureMaxDim int
	MaxUploadBytes       int64
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:           getEnvInt("PORT", 8080),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		BackendAPIURL: strings.TrimRight(getEnv("BACKEND_API_URL", "https://supplier-mangement-backend.onrender.com/api"), "/"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		WorkspaceTTL:      getEnvDuration("WORKSPACE_TTL", 2*time.Hour),
		DashboardCacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SessionSecret:       getEnv("SESSION_SECRET", "portal-default-dev-secret-change-me"),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "sp_session"),
		SessionCookieSecure: getEnv("SESSION_COOKIE_SECURE", "false") == "true",
		SessionTTL:          getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		TokenStore:    getEnv("TOKEN_STORE", "memory"),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CatalogPath:          getEnv("CATALOG_PATH", ""),
		ProfilePictureMaxDim: getEnvInt("PROFILE_PICTURE_MAX_DIM", 512),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
