package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the service. Every variable
// carries the BENCHBOOK_ prefix, e.g. BENCHBOOK_AUTH_SECRET.
type Config struct {
	Environment string `envconfig:"BENCHBOOK_ENVIRONMENT" default:"development"`
	Addr        string `envconfig:"BENCHBOOK_ADDR" default:":8080"`
	LogLevel    string `envconfig:"BENCHBOOK_LOG_LEVEL" default:"info"`

	// AuthSecret signs session tokens. There is no default: the process
	// refuses to start without one.
	AuthSecret  string        `envconfig:"BENCHBOOK_AUTH_SECRET" required:"true"`
	TokenTTL    time.Duration `envconfig:"BENCHBOOK_TOKEN_TTL" default:"24h"`
	TokenIssuer string        `envconfig:"BENCHBOOK_TOKEN_ISSUER" default:"benchbook"`

	// DatabaseURL is the Postgres DSN. When empty the service runs on the
	// in-memory store, which is only useful for local development.
	DatabaseURL string `envconfig:"BENCHBOOK_DATABASE_URL"`

	ReadTimeout     time.Duration `envconfig:"BENCHBOOK_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"BENCHBOOK_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"BENCHBOOK_SHUTDOWN_TIMEOUT" default:"10s"`

	RateRPS      float64 `envconfig:"BENCHBOOK_RATE_RPS" default:"50"`
	RateBurst    int     `envconfig:"BENCHBOOK_RATE_BURST" default:"100"`
	MaxBodyBytes int64   `envconfig:"BENCHBOOK_MAX_BODY_BYTES" default:"1048576"`

	CORSAllowedOrigins []string `envconfig:"BENCHBOOK_CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads .env (when present) and then the BENCHBOOK_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return nil, errors.New("auth secret must be provided")
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Environment == "production"
}
