package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/upb/casting-agency/utils"
)

// Config represents the complete application configuration
type Config struct {
	Auth          AuthConfig
	Server        ServerConfig
	Observability ObservabilityConfig
	Environment   string
}

// AuthConfig holds identity provider and token verification configuration
type AuthConfig struct {
	Domain             string        `validate:"required,hostname"` // tenant host, e.g. casting.eu.auth0.com
	Audience           string        `validate:"required"`
	Algorithms         []string      `validate:"required,min=1,dive,oneof=RS256 RS384 RS512"`
	JWKSURL            string        `validate:"required,url"`
	CacheTTL           time.Duration `validate:"gte=0"`
	MinRefreshInterval time.Duration `validate:"gte=0"`
	HTTPTimeout        time.Duration `validate:"gt=0"`
	Leeway             time.Duration `validate:"gte=0"`
	WarmKeySet         bool          // fetch the key set while building dependencies
}

// ServerConfig holds HTTP routing configuration
type ServerConfig struct {
	RequestTimeout     time.Duration `validate:"gt=0"`
	CORSAllowedOrigins []string      `validate:"required,min=1"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `validate:"required,oneof=debug info warn error"`
	LogFormat string `validate:"required,oneof=json text console"` // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	domain := normalizeDomain(getEnv("AUTH0_DOMAIN", ""))
	jwksURL := getEnv("JWKS_URL", "")
	if jwksURL == "" && domain != "" {
		jwksURL = "https://" + domain + "/.well-known/jwks.json"
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Auth: AuthConfig{
			Domain:             domain,
			Audience:           getEnv("API_AUDIENCE", ""),
			Algorithms:         getEnvAsList("AUTH_ALGORITHMS", []string{"RS256"}),
			JWKSURL:            jwksURL,
			CacheTTL:           getEnvAsDuration("JWKS_CACHE_TTL", time.Hour),
			MinRefreshInterval: getEnvAsDuration("JWKS_MIN_REFRESH_INTERVAL", 0),
			HTTPTimeout:        getEnvAsDuration("JWKS_HTTP_TIMEOUT", 5*time.Second),
			Leeway:             getEnvAsDuration("TOKEN_LEEWAY", 0),
			WarmKeySet:         getEnvAsBool("JWKS_WARM", false),
		},
		Server: ServerConfig{
			RequestTimeout:     getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks struct constraints and the rules that span fields
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	// Key material must come over TLS in production
	if c.IsProduction() {
		u, err := url.Parse(c.Auth.JWKSURL)
		if err != nil || u.Scheme != "https" {
			return fmt.Errorf("JWKS URL must use https in production")
		}
		for _, origin := range c.Server.CORSAllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("wildcard CORS origin is not allowed in production")
			}
		}
	}

	return nil
}

// Issuer returns the expected iss claim for the tenant
func (c *AuthConfig) Issuer() string {
	return "https://" + c.Domain + "/"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Helper functions

// normalizeDomain accepts the tenant with or without scheme and trailing slash
func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	return strings.TrimSuffix(domain, "/")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
