// Package config loads client configuration from an optional .env file, an
// optional YAML config file, and environment variable overrides, in that
// order of increasing precedence.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultAPIBase = "http://localhost:8000/api/v1"
	DefaultWebBase = "http://localhost:3000"
)

// Config holds the client configuration
type Config struct {
	// APIBase is the REST base path, e.g. http://host:8000/api/v1
	APIBase string `yaml:"api_base"`
	// WSBase is the WebSocket base, e.g. ws://host:8000. Empty disables
	// the live results stream and falls back to polling.
	WSBase string `yaml:"ws_base"`
	// WebBase is the public web UI base used for share links
	WebBase string `yaml:"web_base"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// SessionPath is the session store location; ":memory:" keeps the
	// session purely in-process
	SessionPath string `yaml:"session_path"`
}

// Load builds the configuration. A missing .env or YAML file is not an
// error; environment variables always win.
func Load() (*Config, error) {
	// Best effort; absence is the common case
	_ = godotenv.Load()

	cfg := &Config{
		APIBase:     DefaultAPIBase,
		WebBase:     DefaultWebBase,
		LogLevel:    "info",
		SessionPath: ":memory:",
	}

	if path := configFilePath(); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// configFilePath returns the YAML config location: POLLBOOTH_CONFIG if set,
// else ~/.config/pollbooth/config.yaml when it exists.
func configFilePath() string {
	if path := os.Getenv("POLLBOOTH_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "pollbooth", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// loadFile merges a YAML config file into cfg
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnv merges environment variable overrides into cfg
func applyEnv(cfg *Config) {
	if v := os.Getenv("POLLBOOTH_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("POLLBOOTH_WS_BASE"); v != "" {
		cfg.WSBase = v
	}
	if v := os.Getenv("POLLBOOTH_WEB_BASE"); v != "" {
		cfg.WebBase = v
	}
	if v := os.Getenv("POLLBOOTH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("POLLBOOTH_SESSION"); v != "" {
		cfg.SessionPath = v
	}
}
