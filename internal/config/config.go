// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// minSessionSecretLen is the shortest HMAC secret accepted for session tokens.
const minSessionSecretLen = 32

// ErrWeakSessionSecret is returned when SESSION_SECRET is too short.
var ErrWeakSessionSecret = errors.New("SESSION_SECRET must be at least 32 characters")

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`

	// Cache (Redis)
	RedisURL       string `env:"REDIS_URL,required,notEmpty"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"memopad:"`

	// Sessions
	SessionSecret       string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionIssuer       string        `env:"SESSION_ISSUER" envDefault:"memopad"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"memopad.session-token"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Page the route guard redirects unauthenticated page requests to
	SignInPath string `env:"SIGN_IN_PATH" envDefault:"/auth/signin"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting of credential sign-in, per client IP
	RateLimitSignInEnabled bool `env:"RATE_LIMIT_SIGNIN_ENABLED" envDefault:"true"`
	RateLimitSignInPerMin  int  `env:"RATE_LIMIT_SIGNIN_PER_MIN" envDefault:"10"`
	RateLimitSignInBurst   int  `env:"RATE_LIMIT_SIGNIN_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Proxies whose X-Forwarded-For / X-Real-IP headers are believed.
	// Comma-separated CIDRs or bare IPs; empty trusts no one.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

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

// GetTrustedProxies parses TrustedProxies into prefixes.
// A bare IP is taken as a single-address prefix.
func (c *Config) GetTrustedProxies() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return prefixes, nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return nil, ErrWeakSessionSecret
	}
	if _, err := cfg.GetTrustedProxies(); err != nil {
		return nil, err
	}
	return cfg, nil
}
