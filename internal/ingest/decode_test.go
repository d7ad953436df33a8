package ingest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/stockseed/internal/model"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{"dollar prefix", "$123.45", 123.45, false},
		{"no prefix", "123.45", 123.45, false},
		{"whole dollars", "$10", 10, false},
		{"surrounding space", " $9.80 ", 9.80, false},
		{"sub-cent", "$0.0001", 0.0001, false},
		{"double dollar", "$$1.00", 0, true},
		{"empty", "", 0, true},
		{"only symbol", "$", 0, true},
		{"garbage", "abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParsePrice(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1000", 1000, false},
		{"0", 0, false},
		{" 42 ", 42, false},
		{"10.5", 0, true},
		{"1e3", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVolume(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVolume(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVolume(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-02", jan2, false},
		{"01/02/2024", jan2, false},
		{"1/2/2024", jan2, false},
		{"2024/01/02", time.Time{}, true},
		{"yesterday", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadStocks(t *testing.T) {
	in := "Symbol,Name\nAAA,Alpha Co\nBBB,Beta Co\n"

	stocks, err := ReadStocks(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadStocks failed: %v", err)
	}

	want := []model.Stock{
		{Symbol: "AAA", FullName: "Alpha Co"},
		{Symbol: "BBB", FullName: "Beta Co"},
	}
	if len(stocks) != len(want) {
		t.Fatalf("len(stocks) = %d, want %d", len(stocks), len(want))
	}
	for i := range want {
		if stocks[i] != want[i] {
			t.Errorf("stocks[%d] = %+v, want %+v", i, stocks[i], want[i])
		}
	}
}

func TestReadStocks_ByteOrderMarkHeader(t *testing.T) {
	in := "\ufeffSymbol,Name\nAAA,Alpha Co\n"

	stocks, err := ReadStocks(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadStocks failed: %v", err)
	}
	if len(stocks) != 1 || stocks[0].Symbol != "AAA" {
		t.Errorf("stocks = %+v, want [AAA]", stocks)
	}
}

func TestReadStocks_ColumnOrderIndependent(t *testing.T) {
	in := "Name,Sector,Symbol\nAlpha Co,Tech,AAA\n"

	stocks, err := ReadStocks(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadStocks failed: %v", err)
	}
	if len(stocks) != 1 || stocks[0] != (model.Stock{Symbol: "AAA", FullName: "Alpha Co"}) {
		t.Errorf("stocks = %+v, want [{AAA Alpha Co}]", stocks)
	}
}

func TestReadStocks_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		target error
	}{
		{"missing name column", "Symbol\nAAA\n", ErrMissingColumn},
		{"empty symbol", "Symbol,Name\n,Nameless\n", ErrMalformedRow},
		{"wrong field count", "Symbol,Name\nAAA,Alpha,Extra\n", ErrMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stocks, err := ReadStocks(strings.NewReader(tt.in))
			if !errors.Is(err, tt.target) {
				t.Errorf("ReadStocks error = %v, want %v", err, tt.target)
			}
			if stocks != nil {
				t.Errorf("stocks = %+v, want nil", stocks)
			}
		})
	}
}

func TestReadStocks_EmptyInput(t *testing.T) {
	if _, err := ReadStocks(strings.NewReader("")); err == nil {
		t.Error("ReadStocks on empty input should fail")
	}
}

const tradeCSV = `Date,High,Low,Open,Close/Last,Volume
2024-01-01,$10.00,$9.00,$9.50,$9.80,100
2024-01-02,$11.00,$9.70,$9.80,$10.90,250
2024-01-03,$12.00,$10.50,$10.90,$11.75,300
`

func TestReadTrades(t *testing.T) {
	stock := model.Stock{Symbol: "AAA", FullName: "Alpha Co"}

	trades, err := ReadTrades(strings.NewReader(tradeCSV), stock)
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("len(trades) = %d, want 3", len(trades))
	}

	first := trades[0]
	want := model.Trade{
		Symbol:   "AAA",
		FullName: "Alpha Co",
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		High:     10.00,
		Low:      9.00,
		Open:     9.50,
		Close:    9.80,
		Volume:   100,
	}
	if first != want {
		t.Errorf("trades[0] = %+v, want %+v", first, want)
	}
	if trades[2].Close != 11.75 {
		t.Errorf("trades[2].Close = %v, want 11.75", trades[2].Close)
	}
}

func TestReadTrades_BadVolumeFailsWholeFile(t *testing.T) {
	in := `Date,High,Low,Open,Close/Last,Volume
2024-01-01,$10.00,$9.00,$9.50,$9.80,100
2024-01-02,$11.00,$9.70,$9.80,$10.90,250
2024-01-03,$12.00,$10.50,$10.90,$11.75,lots
`
	trades, err := ReadTrades(strings.NewReader(in), model.Stock{Symbol: "AAA"})
	if err == nil {
		t.Fatal("ReadTrades should fail on non-numeric volume")
	}
	if trades != nil {
		t.Errorf("trades = %+v, want nil (no partial result)", trades)
	}
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("error = %v, want ErrMalformedRow", err)
	}

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("error = %T, want *RowError", err)
	}
	if rowErr.Line != 4 {
		t.Errorf("RowError.Line = %d, want 4", rowErr.Line)
	}
	if rowErr.Column != ColVolume {
		t.Errorf("RowError.Column = %q, want %q", rowErr.Column, ColVolume)
	}
	if rowErr.Value != "lots" {
		t.Errorf("RowError.Value = %q, want %q", rowErr.Value, "lots")
	}
}

func TestTradeReader_Lazy(t *testing.T) {
	tr, err := NewTradeReader(strings.NewReader(tradeCSV), model.Stock{Symbol: "AAA"})
	if err != nil {
		t.Fatalf("NewTradeReader failed: %v", err)
	}

	count := 0
	for {
		_, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		count++
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// Exhausted readers stay exhausted.
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Next after EOF = %v, want io.EOF", err)
	}
}

func TestReadTrades_MissingColumn(t *testing.T) {
	in := "Date,High,Low,Open,Close,Volume\n"
	_, err := ReadTrades(strings.NewReader(in), model.Stock{Symbol: "AAA"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	stocksPath := filepath.Join(dir, "nasdaq_stocks.csv")
	tradesPath := filepath.Join(dir, "AAA_1Y.csv")

	if err := os.WriteFile(stocksPath, []byte("Symbol,Name\nAAA,Alpha Co\n"), 0644); err != nil {
		t.Fatalf("write stocks: %v", err)
	}
	if err := os.WriteFile(tradesPath, []byte(tradeCSV), 0644); err != nil {
		t.Fatalf("write trades: %v", err)
	}

	stocks, err := ReadStocksFile(stocksPath)
	if err != nil {
		t.Fatalf("ReadStocksFile failed: %v", err)
	}
	if len(stocks) != 1 {
		t.Fatalf("len(stocks) = %d, want 1", len(stocks))
	}

	trades, err := ReadTradesFile(tradesPath, stocks[0])
	if err != nil {
		t.Fatalf("ReadTradesFile failed: %v", err)
	}
	if len(trades) != 3 {
		t.Errorf("len(trades) = %d, want 3", len(trades))
	}
	if trades[0].FullName != "Alpha Co" {
		t.Errorf("trades[0].FullName = %q, want %q", trades[0].FullName, "Alpha Co")
	}

	if _, err := ReadTradesFile(filepath.Join(dir, "ZZZ_1Y.csv"), stocks[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadTradesFile(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestReadTrades_EmptyInput(t *testing.T) {
	stock := model.Stock{Symbol: "BBB", FullName: "Beta Co"}

	tests := []struct {
		name  string
		input string
	}{
		{"zero bytes", ""},
		{"header only", "Date,High,Low,Open,Close/Last,Volume\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trades, err := ReadTrades(strings.NewReader(tt.input), stock)
			if err != nil {
				t.Fatalf("ReadTrades failed: %v", err)
			}
			if len(trades) != 0 {
				t.Errorf("len(trades) = %d, want 0", len(trades))
			}
		})
	}

	tr, err := NewTradeReader(strings.NewReader(""), stock)
	if err != nil {
		t.Fatalf("NewTradeReader failed: %v", err)
	}
	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Next on empty input = %v, want io.EOF", err)
	}
}
