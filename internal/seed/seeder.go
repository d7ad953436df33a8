package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/stockseed/internal/catalog"
	"github.com/rickgao/stockseed/internal/config"
	"github.com/rickgao/stockseed/internal/ingest"
	"github.com/rickgao/stockseed/internal/model"
	"github.com/rickgao/stockseed/internal/storage"
)

// ErrPartialSeed is returned when some stocks' trades failed to load.
var ErrPartialSeed = errors.New("partial seed")

// Config holds seeding settings.
type Config struct {
	DataDir          string
	StocksFile       string
	TradeFilePattern string        // fmt pattern taking the symbol
	Workers          int           // 1 is sequential
	CallTimeout      time.Duration // per store call, 0 disables

	// TradesOnly reloads the trades container and leaves the stocks
	// container untouched. The stock list is still read to find the trade
	// files.
	TradesOnly bool
}

// ConfigFrom converts the file configuration.
func ConfigFrom(c config.SeedConfig) Config {
	return Config{
		DataDir:          c.DataDir,
		StocksFile:       c.StocksFile,
		TradeFilePattern: c.TradeFilePattern,
		Workers:          c.Workers,
		CallTimeout:      c.CallTimeout,
	}
}

// StockFailure records one stock whose trades were not stored.
type StockFailure struct {
	Symbol string
	State  State
	Err    error
}

func (f StockFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.State, f.Symbol, f.Err)
}

func (f StockFailure) Unwrap() error {
	return f.Err
}

// Result summarizes a run.
type Result struct {
	State    State
	FailedAt State // set when State is StateAbort
	Stocks   int   // stocks read from the stock list
	Trades   int
	Failures []StockFailure
	Duration time.Duration
}

// Seeder runs the seeding pipeline against one layout.
type Seeder struct {
	cfg    Config
	store  storage.Store
	layout catalog.Layout
	logger *slog.Logger
}

// New creates a Seeder.
func New(cfg Config, store storage.Store, layout catalog.Layout, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.TradeFilePattern == "" {
		cfg.TradeFilePattern = "%s_1Y.csv"
	}
	if cfg.StocksFile == "" {
		cfg.StocksFile = "nasdaq_stocks.csv"
	}
	return &Seeder{
		cfg:    cfg,
		store:  store,
		layout: layout,
		logger: logger.With("component", "seed", "mode", layout.Mode.String()),
	}
}

// Run executes one seeding run. The returned Result is never nil.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{State: StateStart}
	defer func() { res.Duration = time.Since(start) }()

	s.logger.Info("seeding started",
		"data_dir", s.cfg.DataDir,
		"workers", s.cfg.Workers,
		"trades_only", s.cfg.TradesOnly,
	)

	res.State = StateTruncate
	if err := s.truncate(ctx); err != nil {
		return s.abort(res, err)
	}
	if err := s.create(ctx); err != nil {
		return s.abort(res, err)
	}

	res.State = StateLoadStocks
	stocks, err := ingest.ReadStocksFile(filepath.Join(s.cfg.DataDir, s.cfg.StocksFile))
	if err != nil {
		return s.abort(res, fmt.Errorf("load stocks: %w", err))
	}
	s.logger.Info("loaded stocks", "count", len(stocks))

	if !s.cfg.TradesOnly {
		res.State = StateInsertStocks
		if err := s.insert(ctx, s.layout.Stocks.Name, catalog.EncodeStocks(stocks)); err != nil {
			return s.abort(res, fmt.Errorf("insert stocks: %w", err))
		}
	}
	res.Stocks = len(stocks)

	if s.cfg.Workers == 1 {
		err = s.seedTradesSequential(ctx, stocks, res)
	} else {
		err = s.seedTradesParallel(ctx, stocks, res)
	}
	if err != nil {
		return s.abort(res, err)
	}

	res.State = StateDone
	s.logger.Info("seeding finished",
		"stocks", res.Stocks,
		"trades", res.Trades,
		"failures", len(res.Failures),
		"duration", time.Since(start),
	)

	if len(res.Failures) > 0 {
		errs := make([]error, 0, len(res.Failures)+1)
		errs = append(errs, fmt.Errorf("%w: %d of %d stocks failed", ErrPartialSeed, len(res.Failures), res.Stocks))
		for _, f := range res.Failures {
			errs = append(errs, f)
		}
		return res, errors.Join(errs...)
	}
	return res, nil
}

func (s *Seeder) abort(res *Result, err error) (*Result, error) {
	res.FailedAt = res.State
	res.State = StateAbort
	s.logger.Error("seeding aborted",
		"state", res.FailedAt.String(),
		"error", err,
	)
	return res, err
}

// call bounds one store call by the configured timeout.
func (s *Seeder) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.cfg.CallTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return fn(ctx)
}

// containers returns the containers this run rebuilds.
func (s *Seeder) containers() []storage.Container {
	if s.cfg.TradesOnly {
		return []storage.Container{s.layout.Trades}
	}
	return s.layout.Containers()
}

func (s *Seeder) truncate(ctx context.Context) error {
	for _, c := range s.containers() {
		err := s.call(ctx, func(ctx context.Context) error {
			return s.store.Truncate(ctx, c.Name)
		})
		if storage.Ignorable(err, storage.IgnorableOnTruncate...) {
			s.logger.Warn("truncate skipped", "container", c.Name, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("truncate %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Seeder) create(ctx context.Context) error {
	for _, c := range s.containers() {
		err := s.call(ctx, func(ctx context.Context) error {
			return s.store.CreateContainer(ctx, c)
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Seeder) insert(ctx context.Context, name string, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.call(ctx, func(ctx context.Context) error {
		return s.store.InsertMany(ctx, name, records)
	})
}

func (s *Seeder) tradeFile(symbol string) string {
	return filepath.Join(s.cfg.DataDir, fmt.Sprintf(s.cfg.TradeFilePattern, symbol))
}

// seedStock loads and inserts one stock's trades. It returns the number of
// trades stored and, on failure, the state that failed.
func (s *Seeder) seedStock(ctx context.Context, stock model.Stock) (int, State, error) {
	trades, err := ingest.ReadTradesFile(s.tradeFile(stock.Symbol), stock)
	if err != nil {
		return 0, StateLoadTrades, err
	}
	if err := s.insert(ctx, s.layout.Trades.Name, catalog.EncodeTrades(trades)); err != nil {
		return 0, StateInsertTrades, err
	}
	s.logger.Debug("seeded trades", "symbol", stock.Symbol, "count", len(trades))
	return len(trades), StateInsertTrades, nil
}

func (s *Seeder) seedTradesSequential(ctx context.Context, stocks []model.Stock, res *Result) error {
	for _, stock := range stocks {
		res.State = StateLoadTrades
		n, state, err := s.seedStock(ctx, stock)
		res.State = state
		if err != nil {
			return StockFailure{Symbol: stock.Symbol, State: state, Err: err}
		}
		res.Trades += n
	}
	return nil
}

func (s *Seeder) seedTradesParallel(ctx context.Context, stocks []model.Stock, res *Result) error {
	var (
		mu       sync.Mutex
		failures = make([]*StockFailure, len(stocks))
		g        errgroup.Group
	)
	g.SetLimit(s.cfg.Workers)
	res.State = StateLoadTrades

	for i, stock := range stocks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, state, err := s.seedStock(ctx, stock)
			if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return err
			}
			if err != nil {
				s.logger.Warn("stock failed", "symbol", stock.Symbol, "state", state.String(), "error", err)
				failures[i] = &StockFailure{Symbol: stock.Symbol, State: state, Err: err}
				return nil
			}
			mu.Lock()
			res.Trades += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	res.State = StateInsertTrades

	// Keep failures in stock order.
	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, *f)
		}
	}
	return nil
}
