package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the typed application configuration, populated from .env and
// environment variables.
type Config struct {
	App  AppConfig
	Lazy LazyConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	Port  string
}

// LazyConfig tunes the lazy-service layer.
type LazyConfig struct {
	// LogLevel is the zerolog level for loader lifecycle events
	// (trace|debug|info|warn|error).
	LogLevel string
}

// Load reads .env (if present) and populates a Config from environment
// variables. Call once at bootstrap.
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "go-lazy"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			Port:  env("APP_PORT", "8000"),
		},
		Lazy: LazyConfig{
			LogLevel: env("LAZY_LOG_LEVEL", "info"),
		},
	}
}

// IsProduction reports whether APP_ENV is "production". Production builds
// omit diagnostic detail from lazy-layer errors.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// IsDebug reports whether diagnostic error detail is enabled.
func (c *Config) IsDebug() bool { return c.App.Debug && !c.IsProduction() }

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
