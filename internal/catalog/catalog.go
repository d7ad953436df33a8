// Package catalog names the containers of each storage model and converts
// model records to and from storage records.
package catalog

import (
	"github.com/rickgao/stockseed/internal/storage"
)

// Container names.
const (
	StockCollection = "stock_collection"
	TradeCollection = "trade_collection"
	StockTable      = "stock_table"
	TradeTable      = "trade_table"
)

// Record field names.
const (
	FieldSymbol   = "symbol"
	FieldFullName = "fullName"
	FieldDate     = "date"
	FieldHigh     = "high"
	FieldLow      = "low"
	FieldOpen     = "open"
	FieldClose    = "close"
	FieldVolume   = "volume"
)

// Layout is the pair of containers used by one storage model.
type Layout struct {
	Mode   storage.Mode
	Stocks storage.Container
	Trades storage.Container
}

// Containers returns the layout's containers, stocks first.
func (l Layout) Containers() []storage.Container {
	return []storage.Container{l.Stocks, l.Trades}
}

// For returns the layout of mode. Unknown modes fall back to the document layout.
func For(mode storage.Mode) Layout {
	if mode == storage.ModeTabular {
		return Layout{
			Mode:   storage.ModeTabular,
			Stocks: storage.Container{Name: StockTable, Schema: StockSchema()},
			Trades: storage.Container{Name: TradeTable, Schema: TradeSchema()},
		}
	}
	return Layout{
		Mode:   storage.ModeDocument,
		Stocks: storage.Container{Name: StockCollection},
		Trades: storage.Container{Name: TradeCollection},
	}
}

// StockSchema declares stock_table, partitioned by symbol.
func StockSchema() *storage.Schema {
	return &storage.Schema{
		Columns: []storage.Column{
			{Name: FieldSymbol, Type: storage.ColumnText},
			{Name: FieldFullName, Type: storage.ColumnText},
		},
		PartitionKey: []string{FieldSymbol},
	}
}

// TradeSchema declares trade_table. Partitioning by symbol and sorting by
// date ascending means one symbol's trades come back in chronological order.
func TradeSchema() *storage.Schema {
	return &storage.Schema{
		Columns: []storage.Column{
			{Name: FieldSymbol, Type: storage.ColumnText},
			{Name: FieldFullName, Type: storage.ColumnText},
			{Name: FieldDate, Type: storage.ColumnDate},
			{Name: FieldHigh, Type: storage.ColumnFloat},
			{Name: FieldLow, Type: storage.ColumnFloat},
			{Name: FieldOpen, Type: storage.ColumnFloat},
			{Name: FieldClose, Type: storage.ColumnFloat},
			{Name: FieldVolume, Type: storage.ColumnInt},
		},
		PartitionKey: []string{FieldSymbol},
		SortKey:      []storage.SortColumn{{Name: FieldDate}},
	}
}

// SymbolFilter matches the records of one stock.
func SymbolFilter(symbol string) storage.Filter {
	return storage.Filter{FieldSymbol: symbol}
}
