package model

import (
	"sort"
	"time"
)

// DateLayout is the canonical textual form of a trade date.
const DateLayout = "2006-01-02"

// Stock identifies a listed security.
type Stock struct {
	Symbol   string `json:"symbol"`   // Natural key (e.g., "AAPL")
	FullName string `json:"fullName"` // Display name
}

// Trade is one daily bar for a stock.
type Trade struct {
	Symbol   string    `json:"symbol"`   // Foreign key to Stock
	FullName string    `json:"fullName"` // Copy of Stock.FullName at ingest time
	Date     time.Time `json:"date"`     // Calendar day (UTC midnight)
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Open     float64   `json:"open"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"` // Shares traded
}

// Day truncates t to a calendar day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortTradesByDate orders trades chronologically in place. Ties keep their
// relative order.
func SortTradesByDate(trades []Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date.Before(trades[j].Date)
	})
}
