// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package config loads runtime configuration from defaults, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full runtime configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Sequence SequenceConfig `koanf:"sequence"`
	Email    EmailConfig    `koanf:"email"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig configures session issuance.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// SequenceConfig configures display-sequence allocation. The range must
// stay large relative to the expected account count; collision
// probability is an explicit deployment assumption.
type SequenceConfig struct {
	Min         int    `koanf:"min"`
	Max         int    `koanf:"max"`
	MaxAttempts uint64 `koanf:"max_attempts"`
}

// EmailConfig configures registration email acceptance.
type EmailConfig struct {
	AcceptedDomains []string `koanf:"accepted_domains"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8076"},
		Database: DatabaseConfig{URL: "postgres://localhost:5432/quantumix"},
		Session:  SessionConfig{TTL: 31 * 24 * time.Hour},
		Sequence: SequenceConfig{Min: 1000, Max: 9998, MaxAttempts: 64},
		Email:    EmailConfig{AcceptedDomains: []string{"tutanota.com", "tuta.com"}},
		Log:      LogConfig{Format: "json"},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// Load builds a Config from defaults, then the optional YAML file at
// path, then any set flags. Flag names use dots matching the koanf key
// paths (e.g. --database.url).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Sequence.Min >= c.Sequence.Max {
		return oops.Code("CONFIG_INVALID").
			With("min", c.Sequence.Min).
			With("max", c.Sequence.Max).
			Errorf("sequence range is empty")
	}
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.ttl must be positive")
	}
	return nil
}
