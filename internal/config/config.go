// Package config loads the server settings from the environment.
//
// Values come from, in order of precedence: real environment variables, an
// optional .env file (joho/godotenv), then the defaults below. Everything is
// a plain scalar read once at startup.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSecretKey is only acceptable for local development.
const DefaultSecretKey = "boop-secret-key-change-in-production"

type Config struct {
	SecretKey   string        `mapstructure:"SECRET_KEY"`
	Port        int           `mapstructure:"PORT"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	DBPath      string        `mapstructure:"DB_PATH"`
	SessionTTL  time.Duration `mapstructure:"SESSION_TTL"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	Env         string        `mapstructure:"APP_ENV"`

	MaxBoopsPerMinute    int `mapstructure:"MAX_BOOPS_PER_MINUTE"`
	MaxDisplayNameLength int `mapstructure:"MAX_DISPLAY_NAME_LENGTH"`
	MaxTaglineLength     int `mapstructure:"MAX_TAGLINE_LENGTH"`
	AuthRatePerMinute    int `mapstructure:"AUTH_RATE_PER_MINUTE"`

	GitHubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `mapstructure:"GITHUB_CALLBACK_URL"`
}

// Load reads the configuration. envFile names an optional dotenv file; a
// missing file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("PORT", 5000)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_PATH", "data/booping.db")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MAX_BOOPS_PER_MINUTE", 60)
	v.SetDefault("MAX_DISPLAY_NAME_LENGTH", 200)
	v.SetDefault("MAX_TAGLINE_LENGTH", 300)
	v.SetDefault("AUTH_RATE_PER_MINUTE", 20)
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if len(c.SecretKey) < 16 {
		return errors.New("SECRET_KEY must be at least 16 characters")
	}
	if c.IsProduction() && c.SecretKey == DefaultSecretKey {
		return errors.New("SECRET_KEY must be changed from the default in production")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.DatabaseURL == "" && c.DBPath == "" {
		return errors.New("one of DATABASE_URL or DB_PATH is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.MaxBoopsPerMinute < 0 {
		return errors.New("MAX_BOOPS_PER_MINUTE must not be negative")
	}
	if c.MaxDisplayNameLength <= 0 || c.MaxTaglineLength < 0 {
		return errors.New("profile length limits must be positive")
	}
	if c.AuthRatePerMinute < 0 {
		return errors.New("AUTH_RATE_PER_MINUTE must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
