// Package seed loads the stock list and each stock's trade history from CSV
// files into the active storage layout.
//
// A run truncates the layout's containers, creates them, inserts the stocks,
// then inserts one trade batch per stock. With one worker the run stops at
// the first failure. With more workers per-stock failures are collected and
// the run finishes with ErrPartialSeed.
package seed
