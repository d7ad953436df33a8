package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDriver           = DriverPostgres
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultBatchSize        = 500
	DefaultMaxRetries       = 3
	DefaultRetryBackoff     = 500 * time.Millisecond
	DefaultDataDir          = "./datasets"
	DefaultStocksFile       = "nasdaq_stocks.csv"
	DefaultTradeFilePattern = "%s_1Y.csv"
	DefaultWorkers          = 1
	DefaultCallTimeout      = 30 * time.Second
	DefaultServerAddr       = ":8080"
	DefaultRequestTimeout   = 15 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultLogMaxSizeMB     = 100
	DefaultLogMaxBackups    = 5
	DefaultLogMaxAgeDays    = 28
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func (c *Config) applyDefaults() {
	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	if c.Storage.BatchSize == 0 {
		c.Storage.BatchSize = DefaultBatchSize
	}
	// Zero means unset. A negative value disables retries.
	switch {
	case c.Storage.MaxRetries == 0:
		c.Storage.MaxRetries = DefaultMaxRetries
	case c.Storage.MaxRetries < 0:
		c.Storage.MaxRetries = 0
	}
	if c.Storage.RetryBackoff == 0 {
		c.Storage.RetryBackoff = DefaultRetryBackoff
	}

	// Seed defaults
	if c.Seed.DataDir == "" {
		c.Seed.DataDir = DefaultDataDir
	}
	if c.Seed.StocksFile == "" {
		c.Seed.StocksFile = DefaultStocksFile
	}
	if c.Seed.TradeFilePattern == "" {
		c.Seed.TradeFilePattern = DefaultTradeFilePattern
	}
	if c.Seed.Workers == 0 {
		c.Seed.Workers = DefaultWorkers
	}
	// Zero means unset. A negative value disables the per-call timeout.
	switch {
	case c.Seed.CallTimeout == 0:
		c.Seed.CallTimeout = DefaultCallTimeout
	case c.Seed.CallTimeout < 0:
		c.Seed.CallTimeout = 0
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = DefaultLogMaxAgeDays
	}
}
