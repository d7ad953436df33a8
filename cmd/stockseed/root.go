package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockseed/internal/catalog"
	"github.com/rickgao/stockseed/internal/config"
	"github.com/rickgao/stockseed/internal/logging"
	"github.com/rickgao/stockseed/internal/storage"
	"github.com/rickgao/stockseed/internal/storage/memory"
	"github.com/rickgao/stockseed/internal/storage/postgres"
	"github.com/rickgao/stockseed/internal/version"
)

// app holds state shared by subcommands after PersistentPreRunE.
type app struct {
	configPath string
	mode       string
	driver     string

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "stockseed",
		Short:         "Seed and query stock trade history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help":
				return nil
			}
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "configs/stockseed.yaml", "path to config file")
	root.PersistentFlags().StringVar(&a.mode, "mode", "", "storage mode override: document or tabular")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "storage driver override: postgres or memory")

	root.AddCommand(
		newSeedCmd(a),
		newStocksCmd(a),
		newTradesCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadWithDefaults(a.configPath)
	if err != nil {
		return err
	}
	if a.mode != "" {
		cfg.Storage.Mode = a.mode
	}
	if a.driver != "" {
		cfg.Storage.Driver = a.driver
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer

	logger.Info("starting stockseed",
		"version", version.Version,
		"commit", version.Commit,
		"config", a.configPath,
		"driver", cfg.Storage.Driver,
		"mode", cfg.Storage.Mode,
	)
	return nil
}

// backend is an opened store bound to the configured layout.
type backend struct {
	store  storage.Store
	pinger storage.Pinger
	layout catalog.Layout
	close  func()
}

func (a *app) openBackend(ctx context.Context) (*backend, error) {
	mode := a.cfg.StorageMode()
	layout := catalog.For(mode)

	if a.cfg.Storage.Driver == config.DriverMemory {
		a.logger.Warn("using in-memory storage, data is discarded on exit")
		return &backend{store: memory.New(), layout: layout, close: func() {}}, nil
	}

	db := a.cfg.Database
	a.logger.Info("connecting to database",
		"host", db.Host,
		"port", db.Port,
		"database", db.Name,
	)
	pool, err := postgres.Connect(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.logger.Info("database connected")

	opts := []postgres.Option{
		postgres.WithLogger(a.logger),
		postgres.WithBatchSize(a.cfg.Storage.BatchSize),
		postgres.WithRetry(a.cfg.Storage.MaxRetries, a.cfg.Storage.RetryBackoff),
	}

	b := &backend{layout: layout, close: pool.Close}
	if mode == storage.ModeTabular {
		opts = append(opts, postgres.WithContainers(layout.Containers()...))
		s := postgres.NewTableStore(pool, opts...)
		b.store, b.pinger = s, s
	} else {
		s := postgres.NewDocumentStore(pool, opts...)
		b.store, b.pinger = s, s
	}
	return b, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
