// Package config reads the server configuration from NECROOS_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr   string `env:"NECROOS_HTTP_ADDR" envDefault:":8080"`
	CORSOrigin string `env:"NECROOS_CORS_ORIGIN"`

	Store      string `env:"NECROOS_STORE" envDefault:"sqlite"`
	SQLitePath string `env:"NECROOS_SQLITE_PATH" envDefault:"necroos.db"`
	DBDSN      string `env:"NECROOS_DB_DSN"`
	// QuotaBytes caps the snapshot store like browser local storage; 0 is
	// unlimited.
	QuotaBytes int `env:"NECROOS_STORE_QUOTA_BYTES" envDefault:"5242880"`

	GhostLevel  int    `env:"NECROOS_GHOST_LEVEL" envDefault:"1"`
	JournalSize int    `env:"NECROOS_JOURNAL_SIZE" envDefault:"50"`
	Seed        uint64 `env:"NECROOS_SEED"`

	OTELEndpoint string `env:"NECROOS_OTEL_ENDPOINT"`
	OTELEnabled  bool   `env:"NECROOS_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the server configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: NECROOS_SQLITE_PATH is required for the sqlite store", ErrInvalidConfig)
		}
	case StorePostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			return fmt.Errorf("%w: NECROOS_DB_DSN is required for the postgres store", ErrInvalidConfig)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("%w: negative store quota", ErrInvalidConfig)
	}
	return nil
}
