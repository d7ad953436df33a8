package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/rickgao/stockseed/internal/model"
)

// ReadStocks decodes every stock in r. On any error no stocks are returned.
func ReadStocks(r io.Reader) ([]model.Stock, error) {
	sr, err := NewStockReader(r)
	if err != nil {
		return nil, err
	}

	var stocks []model.Stock
	for {
		s, err := sr.Next()
		if err == io.EOF {
			return stocks, nil
		}
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
}

// ReadTrades decodes every trade in r for stock. On any error no trades are returned.
func ReadTrades(r io.Reader, stock model.Stock) ([]model.Trade, error) {
	tr, err := NewTradeReader(r, stock)
	if err != nil {
		return nil, err
	}

	var trades []model.Trade
	for {
		t, err := tr.Next()
		if err == io.EOF {
			return trades, nil
		}
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
}

// ReadStocksFile decodes the stock list at path.
func ReadStocksFile(path string) ([]model.Stock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stocks file: %w", err)
	}
	defer f.Close()

	stocks, err := ReadStocks(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return stocks, nil
}

// ReadTradesFile decodes the trade history at path for stock.
func ReadTradesFile(path string, stock model.Stock) ([]model.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trades file: %w", err)
	}
	defer f.Close()

	trades, err := ReadTrades(f, stock)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return trades, nil
}
