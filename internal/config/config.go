package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the VidTube backend service.
type Config struct {
	AppPort       int
	MongoURI      string
	MongoDatabase string
	CORSOrigins   []string
	LogLevel      string

	Tokens      TokenConfig
	ObjectStore ObjectStoreConfig
	RateLimit   RateLimitConfig
}

// TokenConfig holds the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// ObjectStoreConfig describes the S3-compatible bucket used for media uploads.
type ObjectStoreConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// RateLimitConfig bounds how often a client may hit the auth endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
	TTL      time.Duration
}

// Load reads configuration from environment variables, applying sensible defaults
// for local development while allowing overrides through environment variables.
// A .env file in the working directory is honoured when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppPort:       getInt("VIDTUBE_PORT", 8080),
		MongoURI:      getString("VIDTUBE_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getString("VIDTUBE_MONGO_DATABASE", "vidtube"),
		CORSOrigins:   getList("VIDTUBE_CORS_ORIGINS"),
		LogLevel:      getString("VIDTUBE_LOG_LEVEL", "info"),
		Tokens: TokenConfig{
			AccessSecret:  getString("VIDTUBE_ACCESS_TOKEN_SECRET", "dev-access-secret"),
			AccessTTL:     getDuration("VIDTUBE_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshSecret: getString("VIDTUBE_REFRESH_TOKEN_SECRET", "dev-refresh-secret"),
			RefreshTTL:    getDuration("VIDTUBE_REFRESH_TOKEN_TTL", 10*24*time.Hour),
		},
		ObjectStore: ObjectStoreConfig{
			Bucket:        getString("VIDTUBE_S3_BUCKET", "vidtube-media"),
			Region:        getString("VIDTUBE_S3_REGION", "us-east-1"),
			Endpoint:      getString("VIDTUBE_S3_ENDPOINT", ""),
			PublicBaseURL: getString("VIDTUBE_S3_PUBLIC_BASE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("VIDTUBE_RATE_LIMIT_REQUESTS", 10),
			Window:   getDuration("VIDTUBE_RATE_LIMIT_WINDOW", time.Minute),
			Burst:    getInt("VIDTUBE_RATE_LIMIT_BURST", 5),
			TTL:      getDuration("VIDTUBE_RATE_LIMIT_TTL", 5*time.Minute),
		},
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
