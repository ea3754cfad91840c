package technical

import (
	"testing"
	"time"

	"VNSniper/internal/domain/models"
)

// trendingBars builds a steadily rising history with stacked moving
// averages and even volume.
func trendingBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	price := 100.0
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price *= 1.01
		bars[i] = models.PriceBar{
			Time:        day.AddDate(0, 0, i),
			Open:        price * 0.995,
			High:        price * 1.005,
			Low:         price * 0.985,
			Close:       price,
			Volume:      1_000_000,
			SMA20:       price * 0.97,
			SMA50:       price * 0.94,
			SMA200:      price * 0.90,
			RSI14:       62,
			MACD:        1.2,
			MACDSignal:  0.8,
			MACDHist:    0.4,
			BBUpper:     price * 1.03,
			BBLower:     price * 0.95,
			DailyReturn: 1.0,
		}
	}
	return bars
}

func TestClassifyShortHistory(t *testing.T) {
	c := New()
	p := c.Classify("HPG", trendingBars(5), nil)
	if p.State != models.StateWeak {
		t.Fatalf("expected WEAK state, got %s", p.State)
	}
	if p.TrendPath != models.TrendWeak || p.MTFSync != models.MTFWeak {
		t.Fatalf("expected degraded trend/sync, got %s/%s", p.TrendPath, p.MTFSync)
	}
	if p.MomentumIndex != FallbackMomentum {
		t.Fatalf("expected fallback momentum %d, got %v", FallbackMomentum, p.MomentumIndex)
	}
	if p.MomentumPhase != models.PhaseLow {
		t.Fatalf("expected LOW phase, got %s", p.MomentumPhase)
	}
	if p.Rank <= 0 {
		t.Fatalf("degraded profile must still rank, got %v", p.Rank)
	}
}

func TestClassifyBreakout(t *testing.T) {
	bars := trendingBars(60)
	for i := len(bars) - 5; i < len(bars); i++ {
		bars[i].Volume = 2_000_000
	}

	c := New()
	p := c.Classify("FPT", bars, nil)
	if p.State != models.StateBreakout {
		t.Fatalf("expected BREAKOUT, got %s", p.State)
	}
	if p.TrendPath != models.TrendSMajor {
		t.Fatalf("expected S_MAJOR path, got %s", p.TrendPath)
	}
	if p.MTFSync != models.MTFFull {
		t.Fatalf("expected full sync, got %s", p.MTFSync)
	}
	if p.MomentumIndex < 0 || p.MomentumIndex > 100 {
		t.Fatalf("momentum index out of range: %v", p.MomentumIndex)
	}
}

func TestClassifyBreakoutNeedsVolume(t *testing.T) {
	// Same price shape but flat volume must not read as a breakout.
	c := New()
	p := c.Classify("FPT", trendingBars(60), nil)
	if p.State == models.StateBreakout || p.State == models.StateConfirm {
		t.Fatalf("flat volume must not confirm a breakout, got %s", p.State)
	}
	if p.State != models.StateTrend {
		t.Fatalf("expected TREND continuation, got %s", p.State)
	}
}

func TestClassifyRetest(t *testing.T) {
	bars := trendingBars(60)
	last := &bars[len(bars)-1]
	last.Close = last.SMA20 * 1.01
	last.High = last.Close * 1.002
	last.DailyReturn = -1.5

	c := New()
	p := c.Classify("VNM", bars, nil)
	if p.State != models.StateRetest {
		t.Fatalf("expected RETEST, got %s", p.State)
	}
	if p.RetestQuality < 50 {
		t.Fatalf("retest quality below base: %v", p.RetestQuality)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	bars := trendingBars(60)
	c := New()
	a := c.Classify("MWG", bars, nil)
	b := c.Classify("MWG", bars, nil)
	if a.State != b.State || a.Rank != b.Rank || a.MomentumIndex != b.MomentumIndex {
		t.Fatalf("classification not deterministic: %+v vs %+v", a, b)
	}
}

func TestRankOrdersByTier(t *testing.T) {
	bars := trendingBars(60)
	strong := &models.FundamentalRatios{
		ROE:           models.Float(25),
		EPSGrowth:     models.Float(25),
		RevenueGrowth: models.Float(20),
		PE:            models.Float(12),
		EPS:           models.Float(4000),
		NetMargin:     models.Float(18),
		CurrentRatio:  models.Float(2),
		DebtToEquity:  models.Float(0.5),
	}
	weak := &models.FundamentalRatios{PE: models.Float(40)}

	c := New()
	hi := c.Classify("ACB", bars, strong)
	lo := c.Classify("ACB", bars, weak)
	if hi.QualityTier != models.TierPrime {
		t.Fatalf("expected PRIME tier, got %s", hi.QualityTier)
	}
	if lo.QualityTier != models.TierAvoid {
		t.Fatalf("expected AVOID tier, got %s", lo.QualityTier)
	}
	if hi.Rank <= lo.Rank {
		t.Fatalf("prime rank %v must exceed avoid rank %v", hi.Rank, lo.Rank)
	}
}

func TestQualityTierMissingFundamentals(t *testing.T) {
	if got := QualityTier(nil); got != models.TierWatch {
		t.Fatalf("missing fundamentals must default to WATCH, got %s", got)
	}
	if got := QualityTier(&models.FundamentalRatios{}); got != models.TierWatch {
		t.Fatalf("empty fundamentals must default to WATCH, got %s", got)
	}
}

func TestFundamentalScoreBounds(t *testing.T) {
	if got := FundamentalScore(nil); got != 50 {
		t.Fatalf("missing fundamentals must score 50, got %v", got)
	}
	best := &models.FundamentalRatios{
		PE:           models.Float(6),
		PB:           models.Float(0.8),
		ROE:          models.Float(30),
		ROA:          models.Float(12),
		CurrentRatio: models.Float(2.5),
		DebtToEquity: models.Float(0.2),
		NetMargin:    models.Float(25),
	}
	if got := FundamentalScore(best); got > 100 {
		t.Fatalf("score must clamp at 100, got %v", got)
	}
	worst := &models.FundamentalRatios{
		PE:           models.Float(40),
		PB:           models.Float(5),
		ROE:          models.Float(2),
		CurrentRatio: models.Float(0.5),
		DebtToEquity: models.Float(3),
	}
	if got := FundamentalScore(worst); got < 0 {
		t.Fatalf("score must clamp at 0, got %v", got)
	}
}
