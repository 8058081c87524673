package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHIDS_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (SHIDS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SessionPepper string `usage:"HMAC pepper for session token hashing (SHIDS_SESSION_PEPPER)" flag:"session-pepper"`
	AMQPURL       string `default:"" usage:"AMQP broker URL for order status events; empty logs events instead" flag:"amqp-url"`
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
// Dedicated limits guard the checkout and capture endpoints; General covers
// the rest of the API.
type RateLimitConfig struct {
	Window   time.Duration `default:"1m" usage:"Rate limit window duration"`
	Orders   int           `default:"10"  usage:"Max checkout requests per window" flag:"rate-orders"`
	Capture  int           `default:"5"   usage:"Max newsletter/contact requests per window" flag:"rate-capture"`
	General  int           `default:"100" usage:"Max API requests per window" flag:"rate-general"`
	InMemory bool          `default:"false" usage:"Use the in-process counter instead of Postgres" flag:"rate-in-memory"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
	Secure  bool     `default:"false" usage:"Mark session cookies Secure (requires TLS)" flag:"secure-cookies"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHIDS",
		Files:     []string{"config.yaml", "/etc/shids/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHIDS_DATABASE_URL or DATABASE_URL")
	}
	if cfg.SessionPepper == "" {
		return nil, errors.New("session pepper is required: set SHIDS_SESSION_PEPPER")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the SHIDS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
