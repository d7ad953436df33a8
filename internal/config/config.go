package config

import "time"

// Config is the root configuration for stockseed.
type Config struct {
	Database DBConfig      `yaml:"database"`
	Storage  StorageConfig `yaml:"storage"`
	Seed     SeedConfig    `yaml:"seed"`
	Server   ServerConfig  `yaml:"server"`
	Log      LogConfig     `yaml:"log"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// StorageConfig selects the backend and storage model.
type StorageConfig struct {
	Driver       string        `yaml:"driver"` // "postgres" or "memory"
	Mode         string        `yaml:"mode"`   // "document"/"collection" or "tabular"/"table"
	BatchSize    int           `yaml:"batch_size"`
	MaxRetries   int           `yaml:"max_retries"` // -1 disables retries
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// SeedConfig holds seeding settings.
type SeedConfig struct {
	DataDir          string        `yaml:"data_dir"`
	StocksFile       string        `yaml:"stocks_file"`
	TradeFilePattern string        `yaml:"trade_file_pattern"` // fmt pattern taking the symbol
	Workers          int           `yaml:"workers"`
	CallTimeout      time.Duration `yaml:"call_timeout"` // -1s disables the per-call timeout
}

// ServerConfig holds HTTP read API settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}
