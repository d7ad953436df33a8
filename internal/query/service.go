// Package query reads stocks and trades back from the active storage layout.
//
// The stock list is read once and cached for the life of the Service. Trades
// are always read live.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rickgao/stockseed/internal/catalog"
	"github.com/rickgao/stockseed/internal/model"
	"github.com/rickgao/stockseed/internal/storage"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds each store call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// Service answers stock and trade queries.
type Service struct {
	store   storage.Store
	layout  catalog.Layout
	logger  *slog.Logger
	timeout time.Duration

	stocks atomic.Pointer[[]model.Stock]
	group  singleflight.Group
}

// New creates a Service over layout.
func New(store storage.Store, layout catalog.Layout, opts ...Option) *Service {
	s := &Service{
		store:  store,
		layout: layout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "query", "mode", layout.Mode.String())
	return s
}

// Mode returns the storage mode the Service reads.
func (s *Service) Mode() storage.Mode {
	return s.layout.Mode
}

// ListStocks returns every stock. The first non-empty result is cached and
// later calls do not touch the store.
func (s *Service) ListStocks(ctx context.Context) ([]model.Stock, error) {
	if cached := s.stocks.Load(); cached != nil {
		return slices.Clone(*cached), nil
	}

	// The scan is shared, so one caller's cancellation must not fail the
	// others. find still bounds it by the service timeout.
	scanCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do("stocks", func() (any, error) {
		if cached := s.stocks.Load(); cached != nil {
			return *cached, nil
		}
		stocks, err := s.scanStocks(scanCtx)
		if err != nil {
			return nil, err
		}
		if len(stocks) > 0 && !s.stocks.CompareAndSwap(nil, &stocks) {
			return *s.stocks.Load(), nil
		}
		return stocks, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("stock scan shared")
	}
	return slices.Clone(v.([]model.Stock)), nil
}

func (s *Service) scanStocks(ctx context.Context) ([]model.Stock, error) {
	start := time.Now()
	records, err := s.find(ctx, s.layout.Stocks.Name, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	stocks, err := catalog.DecodeStocks(records)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	s.logger.Debug("scanned stocks", "count", len(stocks), "duration", time.Since(start))
	return stocks, nil
}

// ListTrades returns the trades of symbol. Tables return them date
// ascending. Collections return them in storage order.
func (s *Service) ListTrades(ctx context.Context, symbol string) ([]model.Trade, error) {
	records, err := s.find(ctx, s.layout.Trades.Name, catalog.SymbolFilter(symbol))
	if err != nil {
		return nil, fmt.Errorf("list trades %s: %w", symbol, err)
	}
	trades, err := catalog.DecodeTrades(records)
	if err != nil {
		return nil, fmt.Errorf("list trades %s: %w", symbol, err)
	}
	return trades, nil
}

// find reads name, treating a missing container as empty.
func (s *Service) find(ctx context.Context, name string, filter storage.Filter) ([]storage.Record, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	records, err := s.store.Find(ctx, name, filter)
	if errors.Is(err, storage.ErrContainerNotFound) {
		s.logger.Debug("container missing", "container", name)
		return []storage.Record{}, nil
	}
	return records, err
}
