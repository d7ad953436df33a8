// Package model defines the record types shared by the seeder and the query layer.
//
// Conventions:
//   - Prices: float64 dollars, currency symbol already stripped
//   - Dates: time.Time at UTC midnight (calendar day, no time-of-day)
//   - Symbols: uppercase ticker, natural key of a Stock
package model
