package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rickgao/stockseed/internal/model"
	"github.com/rickgao/stockseed/internal/storage"
)

func TestFor(t *testing.T) {
	tests := []struct {
		mode       storage.Mode
		stocks     string
		trades     string
		wantSchema bool
	}{
		{storage.ModeDocument, StockCollection, TradeCollection, false},
		{storage.ModeTabular, StockTable, TradeTable, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			l := For(tt.mode)
			if l.Mode != tt.mode {
				t.Errorf("Mode = %v, want %v", l.Mode, tt.mode)
			}
			if l.Stocks.Name != tt.stocks {
				t.Errorf("Stocks.Name = %q, want %q", l.Stocks.Name, tt.stocks)
			}
			if l.Trades.Name != tt.trades {
				t.Errorf("Trades.Name = %q, want %q", l.Trades.Name, tt.trades)
			}
			for _, c := range l.Containers() {
				if c.Tabular() != tt.wantSchema {
					t.Errorf("%s.Tabular() = %v, want %v", c.Name, c.Tabular(), tt.wantSchema)
				}
				if c.Schema != nil {
					if err := c.Schema.Validate(); err != nil {
						t.Errorf("%s schema invalid: %v", c.Name, err)
					}
				}
			}
		})
	}
}

func TestTradeSchemaKey(t *testing.T) {
	s := TradeSchema()
	if len(s.PartitionKey) != 1 || s.PartitionKey[0] != FieldSymbol {
		t.Errorf("PartitionKey = %v, want [symbol]", s.PartitionKey)
	}
	if len(s.SortKey) != 1 || s.SortKey[0].Name != FieldDate || s.SortKey[0].Descending {
		t.Errorf("SortKey = %+v, want [date asc]", s.SortKey)
	}
	for name := range EncodeTrade(model.Trade{}) {
		if _, ok := s.Column(name); !ok {
			t.Errorf("encoded field %q is not a trade_table column", name)
		}
	}
}

func sampleTrade() model.Trade {
	return model.Trade{
		Symbol:   "AAA",
		FullName: "Alpha Co",
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		High:     10.00,
		Low:      9.00,
		Open:     9.50,
		Close:    9.80,
		Volume:   100,
	}
}

func TestDecodeTrade_TypedRow(t *testing.T) {
	want := sampleTrade()

	got, err := DecodeTrade(EncodeTrade(want))
	if err != nil {
		t.Fatalf("DecodeTrade failed: %v", err)
	}
	if got != want {
		t.Errorf("DecodeTrade = %+v, want %+v", got, want)
	}
}

func TestDecodeTrade_JSONDocument(t *testing.T) {
	want := sampleTrade()

	data, err := json.Marshal(EncodeTrade(want))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc storage.Record
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := DecodeTrade(doc)
	if err != nil {
		t.Fatalf("DecodeTrade failed: %v", err)
	}
	if got != want {
		t.Errorf("DecodeTrade = %+v, want %+v", got, want)
	}
}

func TestDecodeTrade_DateOnlyString(t *testing.T) {
	r := EncodeTrade(sampleTrade())
	r[FieldDate] = "2024-01-01"

	got, err := DecodeTrade(r)
	if err != nil {
		t.Fatalf("DecodeTrade failed: %v", err)
	}
	if !got.Date.Equal(sampleTrade().Date) {
		t.Errorf("Date = %v, want %v", got.Date, sampleTrade().Date)
	}
}

func TestDecodeTrade_Errors(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"fractional volume", FieldVolume, 10.5},
		{"string price", FieldHigh, "$10.00"},
		{"bad date", FieldDate, "soon"},
		{"numeric symbol", FieldSymbol, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EncodeTrade(sampleTrade())
			r[tt.field] = tt.value
			if _, err := DecodeTrade(r); err == nil {
				t.Errorf("DecodeTrade with %s=%v should fail", tt.field, tt.value)
			}
		})
	}
}

func TestStocksRoundTrip(t *testing.T) {
	in := []model.Stock{{Symbol: "AAA", FullName: "Alpha Co"}, {Symbol: "BBB", FullName: "Beta Co"}}

	out, err := DecodeStocks(EncodeStocks(in))
	if err != nil {
		t.Fatalf("DecodeStocks failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestSymbolFilter(t *testing.T) {
	f := SymbolFilter("AAA")
	if len(f) != 1 || f[FieldSymbol] != "AAA" {
		t.Errorf("SymbolFilter = %v, want {symbol: AAA}", f)
	}
}
