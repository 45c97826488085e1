// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration of the pawgraph commands.
// Command-line flags override these values.
type Config struct {
	// DB is the database directory. Empty means in-memory.
	DB string `env:"PAWGRAPH_DB" envDefault:"./pawgraph_db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"PAWGRAPH_LOG_LEVEL" envDefault:"info"`

	// FeedWorkers sizes the feed hydration pool. 0 uses the number of CPUs.
	FeedWorkers int `env:"PAWGRAPH_FEED_WORKERS" envDefault:"0"`

	// ReconcileBatch is the number of records per reconcile batch.
	ReconcileBatch int `env:"PAWGRAPH_RECONCILE_BATCH" envDefault:"100"`
}

// Load reads Config from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
