// Package config loads the stockdeck configuration from YAML with
// environment variable overrides.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the stockdeck terminal client.
type Config struct {
	API     API     `yaml:"api"`
	Auth    Auth    `yaml:"auth"`
	Logging Logging `yaml:"logging"`
}

// API holds the backend endpoint and client pacing.
type API struct {
	BaseURL         string `yaml:"base_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Auth holds the identity provider endpoint and optional stored
// credentials. When Email is empty the TUI prompts on the login screen.
type Auth struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: API{
			BaseURL:         "http://localhost:5000/api",
			RateLimitPerMin: 120,
		},
		Auth: Auth{
			BaseURL: "https://identitytoolkit.googleapis.com",
		},
		Logging: Logging{
			Level: "info",
			File:  "/tmp/stockdeck.log",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then a best-effort .env file, then environment variable
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Missing .env is fine; explicit env vars still apply below.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKDECK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("STOCKDECK_AUTH_URL"); v != "" {
		cfg.Auth.BaseURL = v
	}
	if v := os.Getenv("STOCKDECK_AUTH_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("STOCKDECK_EMAIL"); v != "" {
		cfg.Auth.Email = v
	}
	if v := os.Getenv("STOCKDECK_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}
