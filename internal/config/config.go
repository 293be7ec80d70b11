package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client.
type Config struct {
	API   APIConfig   `yaml:"api"`
	State StateConfig `yaml:"state"`
	Log   LogConfig   `yaml:"log"`
}

// APIConfig holds backend connection configuration.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StateConfig holds local state configuration.
type StateConfig struct {
	DBPath string `yaml:"db_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 60,
		},
		State: StateConfig{
			DBPath: defaultDBPath(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; a present but unparsable file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 60
	}
	if cfg.State.DBPath == "" {
		cfg.State.DBPath = defaultDBPath()
	}

	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "flaire", "config.yaml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "flaire.db"
	}
	return filepath.Join(home, ".local", "share", "flaire", "flaire.db")
}
