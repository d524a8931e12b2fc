package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/campusfound/campusfound/pkg/jwtx"
)

// minSecretLength is the shortest HMAC secret the service will run with
// without complaining. Shorter secrets still work but are logged loudly.
const minSecretLength = 32

type Config struct {
	SigningSecret string // Required: HMAC secret for token signing
	Issuer        string // Issuer claim for tokens (default: campusfound-auth)

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 168h)

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	RedisAddr    string // Optional: host:port of Redis; selects the shared revocation backend

	SweepInterval time.Duration // Revocation sweep interval (default: 1h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		SigningSecret: os.Getenv("AUTH_SIGNING_SECRET"),
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "campusfound-auth"),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTTL),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RedisAddr:    os.Getenv("AUTH_REDIS_ADDR"),

		SweepInterval: getEnvDurationOrDefault("AUTH_SWEEP_INTERVAL", 1*time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate rejects configurations the service must not start with. There is
// deliberately no fallback secret: a missing AUTH_SIGNING_SECRET is fatal.
// The returned bool reports whether the secret is shorter than recommended.
func (c Config) Validate() (weakSecret bool, err error) {
	if c.SigningSecret == "" {
		return false, errors.New("AUTH_SIGNING_SECRET is required")
	}
	return len(c.SigningSecret) < minSecretLength, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
