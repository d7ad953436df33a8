// Command stockseed seeds stock and trade history into PostgreSQL and serves
// it back.
//
// Usage:
//
//	stockseed seed                 load CSV files into the active storage mode
//	stockseed stocks               print every stock
//	stockseed trades SYMBOL        print one stock's trades
//	stockseed serve                run the HTTP read API
//	stockseed version              print build information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "stockseed:", err)
		stop()
		os.Exit(1)
	}
}
