package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rickgao/stockseed/internal/model"
	"github.com/rickgao/stockseed/internal/storage"
)

// EncodeStock converts a stock to a storage record.
func EncodeStock(s model.Stock) storage.Record {
	return storage.Record{
		FieldSymbol:   s.Symbol,
		FieldFullName: s.FullName,
	}
}

// EncodeTrade converts a trade to a storage record.
func EncodeTrade(t model.Trade) storage.Record {
	return storage.Record{
		FieldSymbol:   t.Symbol,
		FieldFullName: t.FullName,
		FieldDate:     model.Day(t.Date),
		FieldHigh:     t.High,
		FieldLow:      t.Low,
		FieldOpen:     t.Open,
		FieldClose:    t.Close,
		FieldVolume:   t.Volume,
	}
}

// EncodeStocks converts stocks in order.
func EncodeStocks(stocks []model.Stock) []storage.Record {
	out := make([]storage.Record, len(stocks))
	for i, s := range stocks {
		out[i] = EncodeStock(s)
	}
	return out
}

// EncodeTrades converts trades in order.
func EncodeTrades(trades []model.Trade) []storage.Record {
	out := make([]storage.Record, len(trades))
	for i, t := range trades {
		out[i] = EncodeTrade(t)
	}
	return out
}

// DecodeStock converts a storage record to a stock.
func DecodeStock(r storage.Record) (model.Stock, error) {
	var s model.Stock
	var err error
	if s.Symbol, err = stringField(r, FieldSymbol); err != nil {
		return model.Stock{}, err
	}
	if s.FullName, err = stringField(r, FieldFullName); err != nil {
		return model.Stock{}, err
	}
	return s, nil
}

// DecodeTrade converts a storage record to a trade. Values may come straight
// from a typed table or from a JSON round trip.
func DecodeTrade(r storage.Record) (model.Trade, error) {
	var t model.Trade
	var err error
	if t.Symbol, err = stringField(r, FieldSymbol); err != nil {
		return model.Trade{}, err
	}
	if t.FullName, err = stringField(r, FieldFullName); err != nil {
		return model.Trade{}, err
	}
	if t.Date, err = dateField(r, FieldDate); err != nil {
		return model.Trade{}, err
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{FieldHigh, &t.High},
		{FieldLow, &t.Low},
		{FieldOpen, &t.Open},
		{FieldClose, &t.Close},
	} {
		if *f.dst, err = floatField(r, f.name); err != nil {
			return model.Trade{}, err
		}
	}
	if t.Volume, err = intField(r, FieldVolume); err != nil {
		return model.Trade{}, err
	}
	return t, nil
}

// DecodeStocks converts records in order.
func DecodeStocks(records []storage.Record) ([]model.Stock, error) {
	out := make([]model.Stock, 0, len(records))
	for i, r := range records {
		s, err := DecodeStock(r)
		if err != nil {
			return nil, fmt.Errorf("decode stock %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// DecodeTrades converts records in order.
func DecodeTrades(records []storage.Record) ([]model.Trade, error) {
	out := make([]model.Trade, 0, len(records))
	for i, r := range records {
		t, err := DecodeTrade(r)
		if err != nil {
			return nil, fmt.Errorf("decode trade %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func stringField(r storage.Record, name string) (string, error) {
	switch v := r[name].(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("field %s: unexpected type %T", name, v)
	}
}

func floatField(r storage.Record, name string) (float64, error) {
	switch v := r[name].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("field %s: unexpected type %T", name, v)
	}
}

func intField(r storage.Record, name string) (int64, error) {
	switch v := r[name].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("field %s: non-integer value %v", name, v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("field %s: unexpected type %T", name, v)
	}
}

func dateField(r storage.Record, name string) (time.Time, error) {
	switch v := r[name].(type) {
	case time.Time:
		return model.Day(v), nil
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return model.Day(t), nil
		}
		t, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s: %w", name, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("field %s: unexpected type %T", name, v)
	}
}
