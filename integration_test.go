package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stockmetrics/internal/config"
	"stockmetrics/internal/coordinator"
	"stockmetrics/internal/server"
)

// fakeFinnhub counts calls to the fake /stock/metric endpoint and the
// highest number of calls it saw in flight at once.
type fakeFinnhub struct {
	*httptest.Server
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeFinnhub) enter() {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			return
		}
	}
}

// newFinnhubServer fakes /stock/metric. failing symbols get a transport-level
// failure (the connection is dropped) instead of a payload.
func newFinnhubServer(t *testing.T, failing map[string]bool, delay time.Duration) *fakeFinnhub {
	t.Helper()
	fake := &fakeFinnhub{}

	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.enter()
		defer fake.inFlight.Add(-1)
		symbol := r.URL.Query().Get("symbol")

		if failing[symbol] {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Errorf("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}

		if delay > 0 {
			time.Sleep(delay)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if symbol == "AAPL" {
			w.Write([]byte(`{"metric":{"peNormalizedAnnual":28.5,"epsTTM":6.1,"dividendYield":0.5,"debtToEquity":1.2},"symbol":"AAPL"}`))
			return
		}
		if symbol == "SNOW" {
			// no EPS for loss-making companies
			w.Write([]byte(`{"metric":{"peNormalizedAnnual":-12.3,"dividendYield":0,"debtToEquity":0.4},"symbol":"SNOW"}`))
			return
		}
		w.Write([]byte(`{"metric":{"peNormalizedAnnual":20,"epsTTM":1,"dividendYield":0.1,"debtToEquity":0.2},"symbol":"` + symbol + `"}`))
	}))
	t.Cleanup(fake.Close)
	return fake
}

func newTestRouter(baseURL string, concurrency int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		FinnhubAPIKey:  "test_finnhub_key",
		FinnhubBaseURL: baseURL,
		StockSymbols:   config.DefaultSymbols,
		RequestTimeout: 2 * time.Second,
		Concurrency:    concurrency,
	}
	return server.New(coordinator.New(buildFetchers(cfg), cfg.Concurrency, logger), logger)
}

func getStocks(t *testing.T, h http.Handler) (*httptest.ResponseRecorder, []map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stocks", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (body: %s)", err, rr.Body.String())
	}
	return rr, body
}

// TestIntegration_AllSymbols tests the full flow with every default symbol succeeding
func TestIntegration_AllSymbols(t *testing.T) {
	srv := newFinnhubServer(t, nil, 0)

	_, body := getStocks(t, newTestRouter(srv.URL, 1))

	if len(body) != 30 {
		t.Fatalf("len(body) = %d, want 30", len(body))
	}
	for i, symbol := range config.DefaultSymbols {
		if body[i]["symbol"] != symbol {
			t.Errorf("body[%d].symbol = %v, want %s", i, body[i]["symbol"], symbol)
		}
	}
	if got := srv.calls.Load(); got != 30 {
		t.Errorf("upstream calls = %d, want 30", got)
	}

	aapl := body[0]
	want := map[string]float64{"pe": 28.5, "eps": 6.1, "dividend": 0.5, "debt_equity": 1.2}
	for k, v := range want {
		if aapl[k] != v {
			t.Errorf("AAPL %s = %v, want %v", k, aapl[k], v)
		}
	}
}

// TestIntegration_MissingField tests that one absent metric does not drop the symbol
func TestIntegration_MissingField(t *testing.T) {
	srv := newFinnhubServer(t, nil, 0)

	_, body := getStocks(t, newTestRouter(srv.URL, 1))

	var snow map[string]any
	for _, entry := range body {
		if entry["symbol"] == "SNOW" {
			snow = entry
		}
	}
	if snow == nil {
		t.Fatal("SNOW missing from response")
	}
	if _, ok := snow["eps"]; ok {
		t.Errorf("SNOW eps = %v, want absent", snow["eps"])
	}
	if snow["dividend"] != 0.0 {
		t.Errorf("SNOW dividend = %v, want 0", snow["dividend"])
	}
}

// TestIntegration_PartialFailures tests that failed symbols are omitted, not nulled
func TestIntegration_PartialFailures(t *testing.T) {
	failing := map[string]bool{"TSLA": true, "ZM": true, "OKTA": true}
	srv := newFinnhubServer(t, failing, 0)

	_, body := getStocks(t, newTestRouter(srv.URL, 1))

	if len(body) != 27 {
		t.Fatalf("len(body) = %d, want 27", len(body))
	}

	var expected []string
	for _, s := range config.DefaultSymbols {
		if !failing[s] {
			expected = append(expected, s)
		}
	}
	for i, s := range expected {
		if body[i]["symbol"] != s {
			t.Errorf("body[%d].symbol = %v, want %s", i, body[i]["symbol"], s)
		}
	}
}

// TestIntegration_AllFail tests that a total upstream outage still answers 200 []
func TestIntegration_AllFail(t *testing.T) {
	failing := make(map[string]bool)
	for _, s := range config.DefaultSymbols {
		failing[s] = true
	}
	srv := newFinnhubServer(t, failing, 0)

	rr, body := getStocks(t, newTestRouter(srv.URL, 1))

	if len(body) != 0 {
		t.Errorf("len(body) = %d, want 0", len(body))
	}
	if got := string(rr.Body.Bytes()); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}

// TestIntegration_SequentialByDefault tests that concurrency 1 never overlaps upstream calls
func TestIntegration_SequentialByDefault(t *testing.T) {
	srv := newFinnhubServer(t, nil, 2*time.Millisecond)

	getStocks(t, newTestRouter(srv.URL, 1))

	if got := srv.maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent upstream calls = %d, want 1", got)
	}
}

// TestIntegration_ConcurrentFetching tests that a wider pool keeps symbol order
func TestIntegration_ConcurrentFetching(t *testing.T) {
	srv := newFinnhubServer(t, map[string]bool{"NOW": true}, 20*time.Millisecond)

	_, body := getStocks(t, newTestRouter(srv.URL, 10))

	if len(body) != 29 {
		t.Fatalf("len(body) = %d, want 29", len(body))
	}
	i := 0
	for _, s := range config.DefaultSymbols {
		if s == "NOW" {
			continue
		}
		if body[i]["symbol"] != s {
			t.Errorf("body[%d].symbol = %v, want %s", i, body[i]["symbol"], s)
		}
		i++
	}

	if got := srv.maxInFlight.Load(); got < 2 || got > 10 {
		t.Errorf("max concurrent upstream calls = %d, want between 2 and 10", got)
	}
}

// TestIntegration_UpstreamErrorStatus tests that a non-2xx answer with a JSON body
// keeps the symbol with no metrics, while a non-JSON error body drops it
func TestIntegration_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "MSFT":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"API limit reached. Please try again later."}`))
		case "NVDA":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"internal"}`))
		case "META":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>502 Bad Gateway</html>`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"metric":{"peNormalizedAnnual":null,"epsTTM":1}}`))
		}
	}))
	defer srv.Close()

	rr, body := getStocks(t, newTestRouter(srv.URL, 1))

	if len(body) != 29 {
		t.Fatalf("len(body) = %d, want 29", len(body))
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	bySymbol := make(map[string]string, len(entries))
	for i, raw := range entries {
		bySymbol[body[i]["symbol"].(string)] = string(raw)
	}

	if _, ok := bySymbol["META"]; ok {
		t.Error("META present despite non-JSON error body")
	}
	for _, s := range []string{"MSFT", "NVDA"} {
		if got, want := bySymbol[s], `{"symbol":"`+s+`"}`; got != want {
			t.Errorf("%s entry = %s, want %s", s, got, want)
		}
	}
	if got, want := bySymbol["AAPL"], `{"symbol":"AAPL","pe":null,"eps":1}`; got != want {
		t.Errorf("AAPL entry = %s, want %s", got, want)
	}
}

func TestBuildFetchers(t *testing.T) {
	cfg := &config.Config{
		FinnhubAPIKey:  "key",
		FinnhubBaseURL: "http://localhost",
		StockSymbols:   []string{"AAPL", "ZS"},
	}

	fetchers := buildFetchers(cfg)
	if len(fetchers) != 2 {
		t.Fatalf("len(fetchers) = %d, want 2", len(fetchers))
	}

	if got := fetchers[1].Key(); got != "fetcher:finnhub:ZS" {
		t.Errorf("Key() = %q, want fetcher:finnhub:ZS", got)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := newLogger(tt.level)
			if !l.Enabled(t.Context(), tt.want) {
				t.Errorf("level %v not enabled for %q", tt.want, tt.level)
			}
			if tt.want > slog.LevelDebug && l.Enabled(t.Context(), tt.want-1) {
				t.Errorf("level below %v enabled for %q", tt.want, tt.level)
			}
		})
	}
}
