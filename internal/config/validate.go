package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/stockseed/internal/storage"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Storage.Mode == "" {
		return errors.New("storage.mode is required")
	}
	if _, err := storage.ParseMode(c.Storage.Mode); err != nil {
		return fmt.Errorf("storage.mode: %w", err)
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Storage.Driver)
	}

	if c.Storage.BatchSize < 1 {
		return errors.New("storage.batch_size must be >= 1")
	}
	if c.Storage.MaxRetries < 0 {
		return errors.New("storage.max_retries must be >= 0")
	}

	if c.Seed.Workers < 1 {
		return errors.New("seed.workers must be >= 1")
	}
	if !strings.Contains(c.Seed.TradeFilePattern, "%s") {
		return fmt.Errorf("seed.trade_file_pattern must contain %%s, got %q", c.Seed.TradeFilePattern)
	}
	if c.Seed.CallTimeout < 0 {
		return errors.New("seed.call_timeout must be >= 0")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// StorageMode returns the parsed storage mode. Call after Validate.
func (c *Config) StorageMode() storage.Mode {
	m, _ := storage.ParseMode(c.Storage.Mode)
	return m
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
