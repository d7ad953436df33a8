package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/stockseed/internal/model"
	"github.com/rickgao/stockseed/internal/query"
	"github.com/rickgao/stockseed/internal/seed"
	"github.com/rickgao/stockseed/internal/server"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		dataDir    string
		workers    int
		tradesOnly bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Truncate and reload stocks and trades from CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := seed.ConfigFrom(a.cfg.Seed)
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			cfg.TradesOnly = tradesOnly

			b, err := a.openBackend(ctx)
			if err != nil {
				a.logger.Error("failed to open storage", "error", err)
				return err
			}
			defer b.close()

			res, err := seed.New(cfg, b.store, b.layout, a.logger).Run(ctx)
			if err != nil {
				if errors.Is(err, seed.ErrPartialSeed) {
					a.logger.Error("seeding incomplete", "failures", len(res.Failures))
				}
				return err
			}
			if tradesOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "reloaded %d trades for %d stocks in %s (%s)\n",
					res.Trades, res.Stocks, res.Duration.Round(time.Millisecond), b.layout.Mode)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d stocks and %d trades in %s (%s)\n",
				res.Stocks, res.Trades, res.Duration.Round(time.Millisecond), b.layout.Mode)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding the CSV files (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent stocks (overrides config)")
	cmd.Flags().BoolVar(&tradesOnly, "trades-only", false, "reload trades only and leave stocks untouched")
	return cmd
}

func newStocksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stocks",
		Short: "Print every stock as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.openBackend(ctx)
			if err != nil {
				a.logger.Error("failed to open storage", "error", err)
				return err
			}
			defer b.close()

			stocks, err := a.queries(b).ListStocks(ctx)
			if err != nil {
				a.logger.Error("list stocks failed", "error", err)
				return err
			}
			return printJSON(cmd.OutOrStdout(), stocks)
		},
	}
}

func newTradesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trades SYMBOL",
		Short: "Print one stock's trades as JSON, date ascending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.openBackend(ctx)
			if err != nil {
				a.logger.Error("failed to open storage", "error", err)
				return err
			}
			defer b.close()

			trades, err := a.queries(b).ListTrades(ctx, args[0])
			if err != nil {
				a.logger.Error("list trades failed", "symbol", args[0], "error", err)
				return err
			}
			model.SortTradesByDate(trades)
			return printJSON(cmd.OutOrStdout(), trades)
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stocks and trades over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.openBackend(ctx)
			if err != nil {
				a.logger.Error("failed to open storage", "error", err)
				return err
			}
			defer b.close()

			cfg := server.Config{
				Addr:           a.cfg.Server.Addr,
				RequestTimeout: a.cfg.Server.RequestTimeout,
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if err := server.New(cfg, a.queries(b), b.pinger, a.logger).Run(ctx); err != nil {
				a.logger.Error("server failed", "error", err)
				return err
			}
			a.logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (a *app) queries(b *backend) *query.Service {
	return query.New(b.store, b.layout,
		query.WithLogger(a.logger),
		query.WithTimeout(a.cfg.Seed.CallTimeout),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
