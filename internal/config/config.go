package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool

	// Public join endpoints (validate/redeem). Kept tight: these are
	// the unauthenticated surface a token-enumeration attack would hit.
	JoinRequestsPerWindow int
	JoinWindowMinutes     int

	// Login/registration endpoints.
	AuthRequestsPerMinute int
	AuthWindowMinutes     int

	// Authenticated landlord endpoints (issue/list/revoke).
	InviteRequestsPerMinute int
	InviteWindowMinutes     int
}

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT sessions
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	// Invites
	InviteTTL     time.Duration
	AppBaseURL    string
	SweepInterval time.Duration // 0 disables the expiry sweeper

	RateLimit RateLimitConfig
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "openlease"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT defaults
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "openlease"),
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),

		// Invite defaults
		InviteTTL:     getEnvDuration("INVITE_TTL", 7*24*time.Hour),
		AppBaseURL:    getEnv("APP_BASE_URL", "http://localhost:8080"),
		SweepInterval: getEnvDuration("INVITE_SWEEP_INTERVAL", 0),

		RateLimit: RateLimitConfig{
			Enabled:                 getEnvBool("RATE_LIMIT_ENABLED", true),
			JoinRequestsPerWindow:   getEnvInt("RATE_LIMIT_JOIN_REQUESTS", 20),
			JoinWindowMinutes:       getEnvInt("RATE_LIMIT_JOIN_WINDOW_MINUTES", 1),
			AuthRequestsPerMinute:   getEnvInt("RATE_LIMIT_AUTH_REQUESTS", 10),
			AuthWindowMinutes:       getEnvInt("RATE_LIMIT_AUTH_WINDOW_MINUTES", 1),
			InviteRequestsPerMinute: getEnvInt("RATE_LIMIT_INVITE_REQUESTS", 60),
			InviteWindowMinutes:     getEnvInt("RATE_LIMIT_INVITE_WINDOW_MINUTES", 1),
		},
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.InviteTTL <= 0 {
		return nil, fmt.Errorf("INVITE_TTL must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
