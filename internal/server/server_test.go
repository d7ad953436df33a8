package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rickgao/stockseed/internal/model"
	"github.com/rickgao/stockseed/internal/storage"
)

type fakeQuerier struct {
	stocks    []model.Stock
	trades    map[string][]model.Trade
	err       error
	gotSymbol string
}

func (f *fakeQuerier) Mode() storage.Mode { return storage.ModeTabular }

func (f *fakeQuerier) ListStocks(ctx context.Context) ([]model.Stock, error) {
	return f.stocks, f.err
}

func (f *fakeQuerier) ListTrades(ctx context.Context, symbol string) ([]model.Trade, error) {
	f.gotSymbol = symbol
	if f.err != nil {
		return nil, f.err
	}
	trades := f.trades[symbol]
	if trades == nil {
		trades = []model.Trade{}
	}
	return trades, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func newTestServer(q Querier, p storage.Pinger) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httptest.NewServer(New(Config{RequestTimeout: time.Second}, q, p, logger).Handler())
}

func get(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := newTestServer(&fakeQuerier{}, fakePinger{})
		defer srv.Close()

		var body healthResponse
		if code := get(t, srv.URL+"/health", &body); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
		if body.Status != "ok" || body.Mode != "tabular" {
			t.Errorf("body = %+v, want ok/tabular", body)
		}
	})

	t.Run("no pinger", func(t *testing.T) {
		srv := newTestServer(&fakeQuerier{}, nil)
		defer srv.Close()

		var body healthResponse
		if code := get(t, srv.URL+"/health", &body); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("backend down", func(t *testing.T) {
		srv := newTestServer(&fakeQuerier{}, fakePinger{err: errors.New("dial tcp: refused")})
		defer srv.Close()

		var body errorResponse
		if code := get(t, srv.URL+"/health", &body); code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", code)
		}
		if body.Error.Code != "backend_unavailable" {
			t.Errorf("error code = %q, want backend_unavailable", body.Error.Code)
		}
	})
}

func TestListStocks(t *testing.T) {
	q := &fakeQuerier{stocks: []model.Stock{{Symbol: "AAA", FullName: "Alpha Co"}}}
	srv := newTestServer(q, nil)
	defer srv.Close()

	var stocks []model.Stock
	if code := get(t, srv.URL+"/api/stocks", &stocks); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if len(stocks) != 1 || stocks[0].Symbol != "AAA" || stocks[0].FullName != "Alpha Co" {
		t.Errorf("stocks = %+v", stocks)
	}
}

func TestListTrades(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	q := &fakeQuerier{trades: map[string][]model.Trade{
		"AAA": {
			{Symbol: "AAA", Date: d2, Close: 10.8, Volume: 110},
			{Symbol: "AAA", Date: d1, Close: 9.8, Volume: 100},
		},
	}}
	srv := newTestServer(q, nil)
	defer srv.Close()

	var trades []model.Trade
	if code := get(t, srv.URL+"/api/stocks/aaa/trades", &trades); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if q.gotSymbol != "AAA" {
		t.Errorf("queried symbol = %q, want AAA", q.gotSymbol)
	}
	if len(trades) != 2 {
		t.Fatalf("len = %d, want 2", len(trades))
	}
	if !trades[0].Date.Equal(d1) || !trades[1].Date.Equal(d2) {
		t.Errorf("dates = %v, %v, want ascending", trades[0].Date, trades[1].Date)
	}

	var empty []model.Trade
	if code := get(t, srv.URL+"/api/stocks/ZZZ/trades", &empty); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if len(empty) != 0 {
		t.Errorf("len = %d, want 0", len(empty))
	}
}

func TestQueryError(t *testing.T) {
	srv := newTestServer(&fakeQuerier{err: errors.New("connection refused")}, nil)
	defer srv.Close()

	for _, path := range []string{"/api/stocks", "/api/stocks/AAA/trades"} {
		var body errorResponse
		if code := get(t, srv.URL+path, &body); code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", path, code)
		}
		if body.Error.Code != "query_failed" || body.Error.Message == "" {
			t.Errorf("%s error = %+v", path, body.Error)
		}
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(Config{Addr: "127.0.0.1:0"}, &fakeQuerier{}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
