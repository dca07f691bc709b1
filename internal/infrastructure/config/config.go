package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Browser engines selectable through BROWSER_ENGINE.
const (
	EnginePlaywright = "playwright"
	EngineRod        = "rod"
	EngineStatic     = "static"
)

// secretKeyBytes matches the 24 random bytes the service has always used.
const secretKeyBytes = 24

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `envconfig:"HOST" default:"localhost"`
	Port           string   `envconfig:"PORT" default:"8123"`
	SecretKey      string   `envconfig:"SECRET_KEY"`
	MaxBodyBytes   int64    `envconfig:"MAX_CONTENT_LENGTH" default:"16777216"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1,::1"`

	// SecretGenerated is set when SECRET_KEY was absent and a random one was used.
	SecretGenerated bool `ignored:"true"`
}

// BrowserConfig holds headless browser configuration.
type BrowserConfig struct {
	Engine            string        `envconfig:"BROWSER_ENGINE" default:"playwright"`
	Headless          bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	Install           bool          `envconfig:"BROWSER_INSTALL" default:"false"`
	NavigationTimeout time.Duration `envconfig:"BROWSER_NAV_TIMEOUT" default:"30s"`
	WaitTimeout       time.Duration `envconfig:"BROWSER_WAIT_TIMEOUT" default:"3s"`
	PollInterval      time.Duration `envconfig:"BROWSER_POLL_INTERVAL" default:"250ms"`
	PoolSize          int           `envconfig:"BROWSER_POOL_SIZE" default:"0"`
	Args              []string      `envconfig:"BROWSER_ARGS" default:"--no-sandbox,--disable-dev-shm-usage"`
}

// FetchConfig holds the HTTP client settings of the static engine.
type FetchConfig struct {
	Timeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	UserAgent string        `envconfig:"FETCH_USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"20"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ensureSecret(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           "8123",
			MaxBodyBytes:   16 * 1024 * 1024,
			TrustedProxies: []string{"127.0.0.1", "::1"},
		},
		Browser: BrowserConfig{
			Engine:            EnginePlaywright,
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			WaitTimeout:       3 * time.Second,
			PollInterval:      250 * time.Millisecond,
			Args:              []string{"--no-sandbox", "--disable-dev-shm-usage"},
		},
		Fetch: FetchConfig{
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           false,
		},
	}
	// crypto/rand does not fail on supported platforms.
	_ = cfg.ensureSecret()
	return cfg
}

// Validate checks values envconfig cannot constrain on its own.
func (c *Config) Validate() error {
	switch c.Browser.Engine {
	case EnginePlaywright, EngineRod, EngineStatic:
	default:
		return fmt.Errorf("unknown browser engine %q", c.Browser.Engine)
	}
	if c.Browser.PoolSize < 0 {
		return fmt.Errorf("browser pool size must not be negative, got %d", c.Browser.PoolSize)
	}
	if c.Browser.WaitTimeout < 0 {
		return fmt.Errorf("browser wait timeout must not be negative, got %s", c.Browser.WaitTimeout)
	}
	if c.Browser.PollInterval <= 0 {
		return fmt.Errorf("browser poll interval must be positive, got %s", c.Browser.PollInterval)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max content length must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

func (c *Config) ensureSecret() error {
	if c.Server.SecretKey != "" {
		return nil
	}
	buf := make([]byte, secretKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate secret key: %w", err)
	}
	c.Server.SecretKey = hex.EncodeToString(buf)
	c.Server.SecretGenerated = true
	return nil
}
