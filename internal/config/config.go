// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Supported bearer credential formats.
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Record store (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Upstream call bounds
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	VerifyTimeout time.Duration `env:"VERIFY_TIMEOUT" envDefault:"3s"`

	// Identity verification
	TokenFormat      string        `env:"AUTH_TOKEN_FORMAT" envDefault:"jwt"`
	JWTSecret        string        `env:"AUTH_JWT_SECRET"`
	JWTIssuer        string        `env:"AUTH_JWT_ISSUER"`
	PasetoKey        string        `env:"AUTH_PASETO_KEY"`
	IdentityCacheTTL time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"5m"`

	// Listings
	FeaturedLimit    int           `env:"FEATURED_LIMIT" envDefault:"6"`
	FeaturedCacheTTL time.Duration `env:"FEATURED_CACHE_TTL" envDefault:"60s"`
	CitiesCacheTTL   time.Duration `env:"CITIES_CACHE_TTL" envDefault:"10m"`

	// Rate limiting
	RateLimitEnabled      bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitIPRPS        int  `env:"RATE_LIMIT_IP_RPS" envDefault:"20"`
	RateLimitIPBurst      int  `env:"RATE_LIMIT_IP_BURST" envDefault:"40"`
	RateLimitSubjectRPM   int  `env:"RATE_LIMIT_SUBJECT_RPM" envDefault:"120"`
	RateLimitSubjectBurst int  `env:"RATE_LIMIT_SUBJECT_BURST" envDefault:"20"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://homenest.app,https://admin.homenest.app")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// PasetoKeyBytes decodes the hex encoded PASETO symmetric key.
func (c *Config) PasetoKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.PasetoKey)
	if err != nil {
		return nil, fmt.Errorf("AUTH_PASETO_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AUTH_PASETO_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.TokenFormat {
	case TokenFormatJWT:
		if c.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is required when AUTH_TOKEN_FORMAT=jwt")
		}
	case TokenFormatPaseto:
		if _, err := c.PasetoKeyBytes(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported AUTH_TOKEN_FORMAT %q", c.TokenFormat)
	}

	if c.FeaturedLimit <= 0 {
		return errors.New("FEATURED_LIMIT must be positive")
	}
	if c.StoreTimeout <= 0 || c.VerifyTimeout <= 0 {
		return errors.New("STORE_TIMEOUT and VERIFY_TIMEOUT must be positive")
	}

	return nil
}

// Load reads an optional .env file, parses environment variables and
// returns a validated Config.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
