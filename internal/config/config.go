// internal/config/config.go
//
// Environment configuration for the server and the console game.
// Values come from the process environment (optionally seeded from a .env
// file by main) and are parsed with struct tags.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the service.
type Config struct {
	Port         string `env:"PORT"          envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	AppEnv       string `env:"APP_ENV"       envDefault:"development"`

	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev_secret_change_me"`
	SessionTTL    time.Duration `env:"SESSION_TTL"    envDefault:"30m"`
	CookieName    string        `env:"COOKIE_NAME"    envDefault:"guess_session"`

	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	LegacyAPIKey      string        `env:"API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL"       envDefault:"gemini-2.5-flash"`
	GeminiBaseURL     string        `env:"GEMINI_BASE_URL"`
	CommentaryTimeout time.Duration `env:"COMMENTARY_TIMEOUT" envDefault:"8s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = cfg.LegacyAPIKey
	}
	return cfg, nil
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool { return c.AppEnv == "production" }

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }
