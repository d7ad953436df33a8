// Package server exposes the query layer as a read-only JSON API.
//
// Routes:
//
//	GET /health                       backend reachability and storage mode
//	GET /api/stocks                   every stock
//	GET /api/stocks/{symbol}/trades   one stock's trades, date ascending
package server
