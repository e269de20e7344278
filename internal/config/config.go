// Package config handles configuration loading for the identity service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the identity service.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Two distinct signing secrets: a leaked access secret must not be
	// enough to forge refresh tokens, and vice versa.
	JWTAccessSecret  string
	JWTRefreshSecret string

	// Access tokens issued at login live longer than ones issued at refresh.
	AccessExpiryLogin   time.Duration
	AccessExpiryRefresh time.Duration
	RefreshExpiry       time.Duration

	PermissionRefreshInterval time.Duration

	// LockoutThreshold is the number of consecutive failed logins after
	// which the account is locked. Zero disables lockout.
	LockoutThreshold int

	IdentityProviderURL     string
	IdentityProviderTimeout time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration
	AllowedOrigins  []string
	CookieDomain    string
	Port            string
	Environment     string
}

// Load reads configuration from the environment, after loading a .env file
// if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "whatsapp_poc"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AccessExpiryLogin:   getDuration("JWT_ACCESS_EXPIRY_LOGIN", 30*time.Minute),
		AccessExpiryRefresh: getDuration("JWT_ACCESS_EXPIRY_REFRESH", 15*time.Minute),
		RefreshExpiry:       getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),

		PermissionRefreshInterval: getDuration("PERMISSION_REFRESH_INTERVAL", 10*time.Minute),

		LockoutThreshold: getInt("AUTH_LOCKOUT_THRESHOLD", 0),

		IdentityProviderURL:     getEnv("IDENTITY_PROVIDER_URL", "https://graph.microsoft.com/v1.0/me"),
		IdentityProviderTimeout: getDuration("IDENTITY_PROVIDER_TIMEOUT", 10*time.Second),

		LoginRateLimit:  getInt("LOGIN_RATE_LIMIT", 20),
		LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", time.Minute),
		AllowedOrigins:  splitNonEmpty(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
		Port:            getEnv("PORT", "8084"),
		Environment:     getEnv("ENVIRONMENT", "local"),
	}

	var err error
	if cfg.JWTAccessSecret, err = getEnvRequired("JWT_ACCESS_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshSecret, err = getEnvRequired("JWT_REFRESH_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	return cfg, nil
}

// IsLocal reports whether the service runs in a local/dev environment,
// which relaxes the cookie Secure/SameSite/domain attributes.
func (c *Config) IsLocal() bool {
	return c.Environment == "local" || c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
