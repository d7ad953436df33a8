package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/stockseed/internal/model"
)

// Column names of the source layouts.
const (
	ColSymbol = "Symbol"
	ColName   = "Name"

	ColDate   = "Date"
	ColHigh   = "High"
	ColLow    = "Low"
	ColOpen   = "Open"
	ColClose  = "Close/Last"
	ColVolume = "Volume"
)

var (
	// ErrMalformedRow marks any row that could not be decoded.
	ErrMalformedRow = errors.New("malformed row")

	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
)

// Trade dates appear either as ISO dates or as the NASDAQ export's MM/DD/YYYY.
var dateLayouts = []string{model.DateLayout, "1/2/2006"}

// RowError describes a single bad field.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

// Unwrap exposes both ErrMalformedRow and the underlying parse error.
func (e *RowError) Unwrap() []error {
	return []error{ErrMalformedRow, e.Err}
}

var errEmptyInput = errors.New("empty input")

// table wraps a csv.Reader with a header index.
type table struct {
	r    *csv.Reader
	cols map[string]int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w", errEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		cols[col] = i
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	return &table{r: cr, cols: cols}, nil
}

// next returns the next raw record and its line number.
func (t *table) next() ([]string, int, error) {
	record, err := t.r.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedRow, err)
	}
	line, _ := t.r.FieldPos(0)
	return record, line, nil
}

func (t *table) field(record []string, col string) string {
	return strings.TrimSpace(record[t.cols[col]])
}

// StockReader yields stocks from the master stock list.
type StockReader struct {
	t *table
}

// NewStockReader reads the header and prepares to decode stock rows.
func NewStockReader(r io.Reader) (*StockReader, error) {
	t, err := newTable(r, ColSymbol, ColName)
	if err != nil {
		return nil, err
	}
	return &StockReader{t: t}, nil
}

// Next returns the next stock, or io.EOF when the input is exhausted.
func (sr *StockReader) Next() (model.Stock, error) {
	record, line, err := sr.t.next()
	if err != nil {
		return model.Stock{}, err
	}

	symbol := sr.t.field(record, ColSymbol)
	if symbol == "" {
		return model.Stock{}, &RowError{Line: line, Column: ColSymbol, Err: errors.New("empty symbol")}
	}

	return model.Stock{
		Symbol:   symbol,
		FullName: sr.t.field(record, ColName),
	}, nil
}

// TradeReader yields trades from one stock's history file.
type TradeReader struct {
	t     *table
	stock model.Stock
}

// NewTradeReader reads the header and prepares to decode trade rows for stock.
// Empty input is a stock with no trades: Next returns io.EOF at once.
func NewTradeReader(r io.Reader, stock model.Stock) (*TradeReader, error) {
	t, err := newTable(r, ColDate, ColHigh, ColLow, ColOpen, ColClose, ColVolume)
	if errors.Is(err, errEmptyInput) {
		return &TradeReader{stock: stock}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TradeReader{t: t, stock: stock}, nil
}

// Next returns the next trade, or io.EOF when the input is exhausted.
func (tr *TradeReader) Next() (model.Trade, error) {
	if tr.t == nil {
		return model.Trade{}, io.EOF
	}
	record, line, err := tr.t.next()
	if err != nil {
		return model.Trade{}, err
	}

	trade := model.Trade{
		Symbol:   tr.stock.Symbol,
		FullName: tr.stock.FullName,
	}

	raw := tr.t.field(record, ColDate)
	if trade.Date, err = ParseDate(raw); err != nil {
		return model.Trade{}, &RowError{Line: line, Column: ColDate, Value: raw, Err: err}
	}

	prices := []struct {
		col string
		dst *float64
	}{
		{ColHigh, &trade.High},
		{ColLow, &trade.Low},
		{ColOpen, &trade.Open},
		{ColClose, &trade.Close},
	}
	for _, p := range prices {
		raw := tr.t.field(record, p.col)
		if *p.dst, err = ParsePrice(raw); err != nil {
			return model.Trade{}, &RowError{Line: line, Column: p.col, Value: raw, Err: err}
		}
	}

	raw = tr.t.field(record, ColVolume)
	if trade.Volume, err = ParseVolume(raw); err != nil {
		return model.Trade{}, &RowError{Line: line, Column: ColVolume, Value: raw, Err: err}
	}

	return trade, nil
}

// ParsePrice strips exactly one leading "$" and parses the remainder as a
// decimal amount.
func ParsePrice(s string) (float64, error) {
	s, _ = strings.CutPrefix(strings.TrimSpace(s), "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// ParseVolume parses a non-negative base-10 share count.
func ParseVolume(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative volume %d", v)
	}
	return v, nil
}

// ParseDate parses a calendar date in any accepted layout, at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
