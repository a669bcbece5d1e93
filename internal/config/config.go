// Package config loads server configuration from a yaml file with
// environment overrides, so a bare DATABASE_URL is enough to run.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is everything the server needs to start.
type Config struct {
	Listen      string `yaml:"listen"`
	DatabaseURL string `yaml:"database_url"`
	Team        string `yaml:"team"`
}

// Load reads the yaml file at path (a missing file is fine), applies
// env overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{Listen: ":8080"}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only configuration
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("COURTSIDE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("COURTSIDE_TEAM"); v != "" {
		cfg.Team = v
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database_url is required (or set DATABASE_URL)")
	}
	if cfg.Team == "" {
		return nil, errors.New("team is required (or set COURTSIDE_TEAM)")
	}
	return cfg, nil
}
