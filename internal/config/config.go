// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Config holds the application configuration loaded from environment
// variables.
type Config struct {
	RemoteURL    string   `env:"GRAPHMIRROR_REMOTE_URL,required,notEmpty"`
	RemoteAPIKey string   `env:"GRAPHMIRROR_REMOTE_API_KEY,required,notEmpty"`
	Channel      string   `env:"GRAPHMIRROR_CHANNEL" envDefault:"website"`
	Languages    []string `env:"GRAPHMIRROR_LANGUAGES" envSeparator:"," envDefault:"en-us"`

	StoreBackend string `env:"GRAPHMIRROR_STORE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"GRAPHMIRROR_DB_PATH" envDefault:"./data/graphmirror.db"`
	RedisURL     string `env:"GRAPHMIRROR_REDIS_URL"`                           // Redis URL for the redis backend
	KeyPrefix    string `env:"GRAPHMIRROR_KEY_PREFIX" envDefault:"graphmirror:"` // Redis key prefix

	PageSize int `env:"GRAPHMIRROR_PAGE_SIZE" envDefault:"50"`
	MaxDepth int `env:"GRAPHMIRROR_MAX_DEPTH" envDefault:"3"`

	// FetchRate limits remote fetches per second (0 = unlimited).
	FetchRate float64 `env:"GRAPHMIRROR_FETCH_RATE" envDefault:"10"`

	// SyncSchedule is a cron expression; empty disables scheduled runs.
	SyncSchedule string `env:"GRAPHMIRROR_SYNC_SCHEDULE" envDefault:"@every 5m"`

	ServerHost string `env:"GRAPHMIRROR_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"GRAPHMIRROR_SERVER_PORT" envDefault:"8090"`
	Env        string `env:"GRAPHMIRROR_ENV" envDefault:"development"`
	LogLevel   string `env:"GRAPHMIRROR_LOG_LEVEL" envDefault:"info"`
}

// IsDevelopment returns true if the application is running in
// development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisStore returns true if the redis backend is selected.
func (c Config) UseRedisStore() bool {
	return c.StoreBackend == "redis"
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Languages) == 0 {
		return nil, fmt.Errorf("GRAPHMIRROR_LANGUAGES must list at least one language code")
	}
	for i, code := range cfg.Languages {
		code = strings.ToLower(strings.TrimSpace(code))
		if _, err := language.Parse(code); err != nil {
			return nil, fmt.Errorf("GRAPHMIRROR_LANGUAGES: invalid language code %q: %w", code, err)
		}
		cfg.Languages[i] = code
	}

	if cfg.UseRedisStore() && cfg.RedisURL == "" {
		return nil, fmt.Errorf("GRAPHMIRROR_REDIS_URL is required with the redis store backend")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("GRAPHMIRROR_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("GRAPHMIRROR_MAX_DEPTH must be positive, got %d", cfg.MaxDepth)
	}

	return cfg, nil
}
