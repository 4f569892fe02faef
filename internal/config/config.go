package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/segmentlens/internal/viz"
)

// Config holds all configuration for the segmentlens server and CLI.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Backend   BackendConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Theme     ThemeConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Enable only behind a proxy that sets them.
	TrustProxy bool
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the session cache backend. An empty URL means the
// in-process cache is used instead.
type RedisConfig struct {
	URL string
}

// BackendConfig points at the clustering backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	PurgeInterval time.Duration
	MaxPages      int
}

type RateLimitConfig struct {
	PerMinute int
}

type ThemeConfig struct {
	Default viz.ThemeName
}

// Load reads configuration from environment variables and returns a validated
// server Config. Returns an error with a descriptive message if any required
// value is missing or invalid.
func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// Override adjusts the environment configuration before validation, e.g.
// from command-line flags.
type Override func(*Config)

// LoadClient is Load without the database requirement. The CLI keeps
// preferences in memory.
func LoadClient(overrides ...Override) (*Config, error) {
	cfg := fromEnv()
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       envInt("SEGMENTLENS_PORT", 8080),
			Env:        envString("SEGMENTLENS_ENV", "development"),
			TrustProxy: envBool("SEGMENTLENS_TRUST_PROXY", false),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Backend: BackendConfig{
			BaseURL: os.Getenv("BACKEND_BASE_URL"),
			Timeout: envDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			TTL:           envDuration("SESSION_TTL", 30*time.Minute),
			PurgeInterval: envDuration("SESSION_PURGE_INTERVAL", 10*time.Minute),
			MaxPages:      envInt("SESSION_MAX_PAGES", 10000),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),
		},
		Theme: ThemeConfig{
			Default: viz.ThemeName(envString("DEFAULT_THEME", string(viz.DefaultTheme))),
		},
	}
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("BACKEND_BASE_URL must start with http:// or https://, got %q", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Session.PurgeInterval <= 0 {
		return fmt.Errorf("SESSION_PURGE_INTERVAL must be positive, got %s", c.Session.PurgeInterval)
	}
	if c.Session.MaxPages <= 0 {
		return fmt.Errorf("SESSION_MAX_PAGES must be positive, got %d", c.Session.MaxPages)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit.PerMinute)
	}

	if _, err := viz.ParseThemeName(string(c.Theme.Default)); err != nil {
		return fmt.Errorf("DEFAULT_THEME must be one of %s; got %q", themeList(), c.Theme.Default)
	}

	return nil
}

func themeList() string {
	names := viz.ThemeNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
