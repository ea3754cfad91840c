package vnmarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"VNSniper/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordRunDuration(float64)       {}
func (noopMetrics) RecordSymbolsAnalyzed(int)       {}
func (noopMetrics) RecordSymbolsSkipped(int)        {}
func (noopMetrics) RecordRegime(string, float64)    {}
func (noopMetrics) RecordCacheHit(string)           {}
func (noopMetrics) RecordCacheMiss(string)          {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordLastPrice(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestBarHistoryParsesAndCaches(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stocks/FPT/candles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("api key header = %q", got)
		}
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		// Out of order, one junk row with zero close.
		w.Write([]byte(`[
			{"date":"2024-01-03","open":101,"high":103,"low":100,"close":102,"volume":1200000},
			{"date":"2024-01-02","open":100,"high":102,"low":99,"close":101,"volume":1000000},
			{"date":"2024-01-04","open":102,"high":104,"low":101,"close":0,"volume":900000}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "secret", BarTTL: time.Minute}, nil, testLogger(t), noopMetrics{})

	bars, err := c.BarHistory(context.Background(), "FPT", 10)
	if err != nil {
		t.Fatalf("BarHistory: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2 (junk row dropped)", len(bars))
	}
	if !bars[0].Time.Before(bars[1].Time) {
		t.Fatalf("bars not sorted ascending: %v then %v", bars[0].Time, bars[1].Time)
	}
	if bars[1].Close != 102 {
		t.Fatalf("last close = %v, want 102", bars[1].Close)
	}

	if _, err := c.BarHistory(context.Background(), "FPT", 10); err != nil {
		t.Fatalf("cached BarHistory: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("provider calls = %d, want 1 (second read served from cache)", n)
	}
}

func TestBarHistoryUnsetTTLSkipsCache(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2024-01-02","open":100,"high":102,"low":99,"close":101,"volume":1000000}
		]`))
	}))
	defer srv.Close()

	// BarTTL left at zero: every read must go to the provider instead
	// of pinning the first response forever.
	c := New(Config{BaseURL: srv.URL}, nil, testLogger(t), noopMetrics{})

	for i := 0; i < 2; i++ {
		if _, err := c.BarHistory(context.Background(), "FPT", 10); err != nil {
			t.Fatalf("BarHistory: %v", err)
		}
	}
	if n := atomic.LoadInt64(&calls); n != 2 {
		t.Fatalf("provider calls = %d, want 2 (zero TTL must not cache)", n)
	}
}

func TestAllFundamentalRatiosSkipsBlankSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"symbol":"FPT","pe":12.5,"roe":22.1},
			{"symbol":"","pe":9.9},
			{"symbol":"HPG","pb":1.4}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MacroTTL: time.Minute}, nil, testLogger(t), noopMetrics{})

	out, err := c.AllFundamentalRatios(context.Background())
	if err != nil {
		t.Fatalf("AllFundamentalRatios: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("ratios = %d, want 2", len(out))
	}
	fpt := out["FPT"]
	if fpt == nil || fpt.PE == nil || *fpt.PE != 12.5 {
		t.Fatalf("FPT PE not parsed: %+v", fpt)
	}
	if fpt.PB != nil {
		t.Fatalf("FPT PB should stay nil when absent")
	}
}

func TestUniverseSnapshotDropsZeroPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market/price-board" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"symbol":"FPT","exchange":"HOSE","lastPrice":98.5,"changePercent":1.2,"totalVolume":3200000},
			{"symbol":"XXX","exchange":"HOSE","lastPrice":0,"totalVolume":100}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MacroTTL: time.Minute}, nil, testLogger(t), noopMetrics{})

	out, err := c.UniverseSnapshot(context.Background())
	if err != nil {
		t.Fatalf("UniverseSnapshot: %v", err)
	}
	if len(out) != 1 || out[0].Symbol != "FPT" || out[0].Exchange != "HOSE" {
		t.Fatalf("universe = %+v", out)
	}
}

func TestBarHistoryProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil, testLogger(t), noopMetrics{})
	if _, err := c.BarHistory(context.Background(), "FPT", 10); err == nil {
		t.Fatal("expected error on 502")
	}
}
