// Package ingest decodes the two source CSV layouts into model records.
//
// Layouts:
//   - Stock list:    Symbol,Name
//   - Trade history: Date,High,Low,Open,Close/Last,Volume
//
// Readers are lazy and single-pass. The Read* helpers drain a reader and are
// all-or-nothing: one malformed row discards the whole file.
package ingest
