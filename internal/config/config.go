// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultPublicDomain      = "dev.forbush.biz"
	DefaultSessionCookieName = "woo_token"

	envProduction = "production"
)

// Config is built once at startup and handed to constructors; handlers never
// read the environment themselves.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront"`
	Env         string `env:"NODE_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogFile     string `env:"LOG_FILE"`
	Debug       bool   `env:"DEBUG"`

	PublicDomain string `env:"PUBLIC_DOMAIN" envDefault:"dev.forbush.biz"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	// StripeAPIURL overrides the Stripe API base URL (stripe-mock, tests).
	StripeAPIURL string `env:"STRIPE_API_URL"`

	SessionCookieName  string   `env:"SESSION_COOKIE_NAME" envDefault:"woo_token"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	OTelEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"65536"`
}

// Load parses the environment into a Config, then normalizes and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no environment variables are set.
func Default() Config {
	cfg := Config{
		ServiceName:       "storefront",
		Env:               "development",
		HTTPAddr:          ":8080",
		PublicDomain:      DefaultPublicDomain,
		SessionCookieName: DefaultSessionCookieName,
		ShutdownTimeout:   10 * time.Second,
		MaxBodyBytes:      64 << 10,
	}
	return cfg
}

// Normalize fills blank values with defaults and reduces PublicDomain to a bare host.
func (c *Config) Normalize() {
	c.PublicDomain = NormalizeDomain(c.PublicDomain)
	if c.SessionCookieName == "" {
		c.SessionCookieName = DefaultSessionCookieName
	}
	if c.ServiceName == "" {
		c.ServiceName = "storefront"
	}
	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
}

// NormalizeDomain strips whitespace, a URL scheme and trailing slashes. An empty
// result falls back to DefaultPublicDomain.
func NormalizeDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimRight(d, "/")
	if d == "" {
		return DefaultPublicDomain
	}
	return d
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if strings.ContainsAny(c.SessionCookieName, " ;=,\t") {
		return fmt.Errorf("config: invalid session cookie name %q", c.SessionCookieName)
	}
	return nil
}

// IsProduction reports whether the service runs with NODE_ENV=production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, envProduction)
}
