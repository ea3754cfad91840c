package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"VNSniper/internal/domain/models"
	"VNSniper/internal/services/regime"
	"VNSniper/internal/services/strength"
	"VNSniper/internal/services/technical"
	"VNSniper/pkg/logger"
)

type fakeMarket struct {
	bars     map[string][]models.PriceBar
	ratios   map[string]*models.FundamentalRatios
	universe []models.UniverseEntry
	breadth  []models.ExchangeBreadth
	failBars map[string]error
}

func (f *fakeMarket) BarHistory(_ context.Context, symbol string, _ int) ([]models.PriceBar, error) {
	if err, ok := f.failBars[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

func (f *fakeMarket) FundamentalRatios(_ context.Context, symbol string) (*models.FundamentalRatios, error) {
	return f.ratios[symbol], nil
}

func (f *fakeMarket) AllFundamentalRatios(context.Context) (map[string]*models.FundamentalRatios, error) {
	return f.ratios, nil
}

func (f *fakeMarket) UniverseSnapshot(context.Context) ([]models.UniverseEntry, error) {
	return f.universe, nil
}

func (f *fakeMarket) BreadthSnapshot(context.Context) ([]models.ExchangeBreadth, error) {
	return f.breadth, nil
}

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
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func barHistory(n int, drift float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	price := 100.0
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price *= 1 + drift/100
		bars[i] = models.PriceBar{
			Time:        day.AddDate(0, 0, i),
			High:        price * 1.005,
			Low:         price * 0.99,
			Close:       price,
			Volume:      1_000_000,
			SMA20:       price * 0.97,
			SMA50:       price * 0.94,
			SMA200:      price * 0.90,
			RSI14:       60,
			MACD:        1,
			MACDSignal:  0.5,
			BBUpper:     price * 1.03,
			BBLower:     price * 0.95,
			DailyReturn: drift,
		}
	}
	return bars
}

func newTestScreener(t *testing.T, market *fakeMarket) *Screener {
	t.Helper()
	classifier := technical.New()
	return NewScreener(
		ScreenerConfig{MinLiquidity: 1},
		market,
		classifier,
		strength.New(),
		regime.New(classifier),
		nil, nil,
		noopMetrics{},
		testLogger(t),
	)
}

func testMarket() *fakeMarket {
	return &fakeMarket{
		bars: map[string][]models.PriceBar{
			"VNINDEX": barHistory(250, 0.1),
			"VN30":    barHistory(250, 0.1),
			"VNMID":   barHistory(250, 0.1),
			"FPT":     barHistory(250, 0.5),
			"HPG":     barHistory(250, 0.2),
			"SSI":     barHistory(250, -0.2),
		},
		ratios: map[string]*models.FundamentalRatios{
			"FPT": {
				Symbol: "FPT",
				ROE:    models.Float(25), EPSGrowth: models.Float(22),
				RevenueGrowth: models.Float(18), PE: models.Float(14),
				EPS: models.Float(4500), NetMargin: models.Float(16),
				CurrentRatio: models.Float(2), DebtToEquity: models.Float(0.4),
			},
		},
		universe: []models.UniverseEntry{
			{Symbol: "FPT", Exchange: "HOSE", LastPrice: 120, Volume: 2_000_000},
			{Symbol: "HPG", Exchange: "HOSE", LastPrice: 28, Volume: 9_000_000},
			{Symbol: "SSI", Exchange: "HNX", LastPrice: 35, Volume: 1_500_000},
		},
		breadth: []models.ExchangeBreadth{
			{Exchange: "HOSE", Advancing: 210, Declining: 130, Unchanged: 60},
			{Exchange: "HNX", Advancing: 80, Declining: 95, Unchanged: 40},
		},
		failBars: map[string]error{},
	}
}

func TestRunFullAnalysis(t *testing.T) {
	s := newTestScreener(t, testMarket())

	res, err := s.RunFullAnalysis(context.Background(), RunParams{TopN: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Analyzed != 3 || res.Skipped != 0 {
		t.Fatalf("expected 3 analyzed 0 skipped, got %d/%d", res.Analyzed, res.Skipped)
	}
	if len(res.TechnicalProfiles) != 3 || len(res.RSProfiles) != 3 {
		t.Fatalf("expected 3 profiles of each kind, got %d/%d",
			len(res.TechnicalProfiles), len(res.RSProfiles))
	}
	for i := 1; i < len(res.TechnicalProfiles); i++ {
		a, b := res.TechnicalProfiles[i-1], res.TechnicalProfiles[i]
		if a.Rank < b.Rank || (a.Rank == b.Rank && a.Symbol > b.Symbol) {
			t.Fatalf("profiles out of order at %d: %s(%v) before %s(%v)",
				i, a.Symbol, a.Rank, b.Symbol, b.Rank)
		}
	}
	if res.Regime == nil || res.Regime.State == "" {
		t.Fatalf("run must always carry a regime assessment")
	}
	if res.Tiers == nil || res.Categories == nil {
		t.Fatalf("run must always carry tier and category maps")
	}
	if len(res.ExchangeBreadth) != 2 || res.ExchangeBreadth[0].Exchange != "HOSE" {
		t.Fatalf("run must carry the exchange breadth tally, got %+v", res.ExchangeBreadth)
	}

	latest, err := s.LatestResult(context.Background())
	if err != nil || latest != res {
		t.Fatalf("latest result not retained: %v", err)
	}
}

func TestRunFullAnalysisPartialFailure(t *testing.T) {
	market := testMarket()
	market.failBars["HPG"] = fmt.Errorf("provider timeout")

	s := newTestScreener(t, market)
	res, err := s.RunFullAnalysis(context.Background(), RunParams{TopN: 10})
	if err != nil {
		t.Fatalf("one bad symbol must not fail the run: %v", err)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", res.Skipped)
	}
	if len(res.TechnicalProfiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(res.TechnicalProfiles))
	}
}

func TestRunFullAnalysisBenchmarkFailure(t *testing.T) {
	market := testMarket()
	market.failBars["VNINDEX"] = fmt.Errorf("provider down")

	s := newTestScreener(t, market)
	if _, err := s.RunFullAnalysis(context.Background(), RunParams{}); err == nil {
		t.Fatalf("a missing benchmark must abort the run")
	}
}

func TestRunFullAnalysisDeterministic(t *testing.T) {
	s := newTestScreener(t, testMarket())
	a, err := s.RunFullAnalysis(context.Background(), RunParams{TopN: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := s.RunFullAnalysis(context.Background(), RunParams{TopN: 10})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i := range a.TechnicalProfiles {
		if a.TechnicalProfiles[i].Symbol != b.TechnicalProfiles[i].Symbol {
			t.Fatalf("runs over identical data must order identically")
		}
	}
}

func TestBuildUniverse(t *testing.T) {
	market := testMarket()
	market.universe = append(market.universe,
		models.UniverseEntry{Symbol: "PEN", Exchange: "UPCOM", LastPrice: 2, Volume: 100})

	s := NewScreener(
		ScreenerConfig{MinLiquidity: 1_000_000},
		market,
		technical.New(), strength.New(), regime.New(technical.New()),
		nil, nil, noopMetrics{}, testLogger(t),
	)

	entries, err := s.BuildUniverse(context.Background(), 2)
	if err != nil {
		t.Fatalf("build universe: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected top 2, got %d", len(entries))
	}
	// Neither has cap data: HPG trades 252M, FPT 240M, so the proxy
	// falls back to traded value.
	if entries[0].Symbol != "HPG" || entries[1].Symbol != "FPT" {
		t.Fatalf("unexpected universe order: %s, %s", entries[0].Symbol, entries[1].Symbol)
	}
	for _, e := range entries {
		if e.Symbol == "PEN" {
			t.Fatalf("illiquid symbol must not enter the universe")
		}
	}
}

func TestBuildUniverseCapProxy(t *testing.T) {
	market := testMarket()
	// Reported cap beats price*shares beats traded value.
	market.ratios["SSI"] = &models.FundamentalRatios{
		Symbol: "SSI", MarketCap: models.Float(900e12),
	}
	market.ratios["HPG"] = &models.FundamentalRatios{
		Symbol: "HPG", SharesOutstanding: models.Float(6.4e9),
	}
	// In the fundamentals feed but not trading today: unioned in, then
	// dropped by the liquidity floor.
	market.ratios["VCB"] = &models.FundamentalRatios{
		Symbol: "VCB", MarketCap: models.Float(999e12),
	}

	s := NewScreener(
		ScreenerConfig{MinLiquidity: 1_000_000},
		market,
		technical.New(), strength.New(), regime.New(technical.New()),
		nil, nil, noopMetrics{}, testLogger(t),
	)

	entries, err := s.BuildUniverse(context.Background(), 10)
	if err != nil {
		t.Fatalf("build universe: %v", err)
	}
	// SSI 900e12 cap, HPG 28*6.4e9=179.2e9, FPT falls back to 240M traded.
	want := []string{"SSI", "HPG", "FPT"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, sym := range want {
		if entries[i].Symbol != sym {
			t.Fatalf("entry %d = %s, want %s", i, entries[i].Symbol, sym)
		}
	}
}
