package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/studentaffairs/portal/internal/validation"
)

const minProductionSecretLength = 32

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Email       EmailConfig
	Storage     StorageConfig
	Cache       CacheConfig
	Tracing     TracingConfig
	Logging     LoggingConfig
	Portal      PortalConfig
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

type ServerConfig struct {
	Host    string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port    int    `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL string `env:"SERVER_BASE_URL" envDefault:"http://localhost:8080"`
}

type DatabaseConfig struct {
	URL            string `env:"DATABASE_URL"`
	MaxConnections int32  `env:"DATABASE_MAX_CONNECTIONS" envDefault:"10"`
	MigrationsPath string `env:"DATABASE_MIGRATIONS_PATH" envDefault:"internal/storage/postgres/migrations"`
}

// AuthConfig holds the shared secret of the hosted auth provider. Tokens are
// issued elsewhere; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`
}

type RateLimitConfig struct {
	PublicPerMinute   int      `env:"RATE_LIMIT_PUBLIC" envDefault:"120"`
	AdminPerMinute    int      `env:"RATE_LIMIT_ADMIN" envDefault:"0"`
	ReminderPerMinute int      `env:"RATE_LIMIT_REMINDER" envDefault:"5"`
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`
}

// EmailConfig configures reminder delivery. An empty ResendAPIKey means email
// is not configured, which is a valid state.
type EmailConfig struct {
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	ResendBaseURL string `env:"RESEND_BASE_URL"`
	From          string `env:"EMAIL_FROM"`
}

type StorageConfig struct {
	BaseURL          string `env:"STORAGE_BASE_URL"`
	Bucket           string `env:"STORAGE_BUCKET" envDefault:"events_image"`
	ServiceKey       string `env:"STORAGE_SERVICE_KEY"`
	PlaceholderImage string `env:"STORAGE_PLACEHOLDER_IMAGE" envDefault:"/images/IMG_2200.jpg"`
	MaxUploadBytes   int64  `env:"STORAGE_MAX_UPLOAD_BYTES" envDefault:"5242880"`
}

type CacheConfig struct {
	RedisURL string        `env:"CACHE_REDIS_URL"`
	Prefix   string        `env:"CACHE_PREFIX" envDefault:"portal:"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

type TracingConfig struct {
	Enabled      bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Exporter     string  `env:"TRACING_EXPORTER" envDefault:"none"`
	ServiceName  string  `env:"TRACING_SERVICE_NAME" envDefault:"student-affairs-portal"`
	OTLPEndpoint string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// PortalConfig holds product settings. Timezone is the institutional zone
// used for "today", "tomorrow" and for placing event clock times.
type PortalConfig struct {
	Timezone string `env:"PORTAL_TIMEZONE" envDefault:"Local"`
}

// Location resolves the configured institutional timezone.
func (p PortalConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// EmailEnabled reports whether a Resend credential is present.
func (c Config) EmailEnabled() bool {
	return strings.TrimSpace(c.Email.ResendAPIKey) != ""
}

// IsDevelopment reports whether verbose error details may be exposed.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return load(nil)
}

// LoadFile reads a YAML file of KEY: value pairs and uses it as a base layer
// underneath the process environment.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return load(values)
}

func load(base map[string]string) (Config, error) {
	environment := make(map[string]string, len(base))
	for k, v := range base {
		environment[k] = v
	}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		environment[key] = value
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" && len(c.Auth.JWTSecret) < minProductionSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecretLength)
	}
	production := c.Environment == "production"
	if err := validation.ValidateBaseURL(c.Server.BaseURL, "SERVER_BASE_URL", production); err != nil {
		return err
	}
	if err := validation.ValidateBaseURL(c.Storage.BaseURL, "STORAGE_BASE_URL", production); err != nil {
		return err
	}
	if err := validation.ValidateURL(c.Email.ResendBaseURL, "RESEND_BASE_URL", production); err != nil {
		return err
	}
	if _, err := c.Portal.Location(); err != nil {
		return fmt.Errorf("PORTAL_TIMEZONE: %w", err)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("STORAGE_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
