package strength

import (
	"testing"
	"time"

	"VNSniper/internal/domain/models"
)

// driftBars builds a history whose close compounds at `daily` percent
// per bar.
func driftBars(n int, daily float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	price := 100.0
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price *= 1 + daily/100
		bars[i] = models.PriceBar{
			Time:        day.AddDate(0, 0, i),
			Close:       price,
			Volume:      500_000,
			DailyReturn: daily,
		}
	}
	return bars
}

func TestRateShortHistory(t *testing.T) {
	e := New()
	p := e.Rate("SSI", driftBars(10, 1), driftBars(250, 0.1))
	if p.State != models.RSNeutral || p.Vector != models.VectorNeut {
		t.Fatalf("short history must be neutral, got %s/%s", p.State, p.Vector)
	}
	if p.Bucket != models.BucketWeak {
		t.Fatalf("short history must bucket WEAK, got %s", p.Bucket)
	}
	if p.Score != FallbackScore {
		t.Fatalf("expected fallback score %d, got %v", FallbackScore, p.Score)
	}
	if p.IsActive {
		t.Fatalf("short history must not be active")
	}
}

func TestRateLeader(t *testing.T) {
	// Steady outperformance that accelerates over the last week.
	bars := driftBars(250, 0.8)
	price := bars[len(bars)-6].Close
	for i := len(bars) - 5; i < len(bars); i++ {
		price *= 1.012
		bars[i].Close = price
		bars[i].DailyReturn = 1.2
	}

	e := New()
	p := e.Rate("FPT", bars, driftBars(250, 0.1))
	if p.State != models.RSLeading {
		t.Fatalf("expected LEADING, got %s (rs=%v trend=%v)", p.State, p.RSPercent, p.RSTrend)
	}
	if p.Vector != models.VectorSync {
		t.Fatalf("all horizons positive must read SYNC, got %s", p.Vector)
	}
	if !p.IsActive {
		t.Fatalf("a leader must be active")
	}
	if p.Score < 50 || p.Score > 100 {
		t.Fatalf("leader score out of range: %v", p.Score)
	}
}

func TestRateLaggard(t *testing.T) {
	// Long underperformance that steepens over the last week.
	bars := driftBars(250, -0.5)
	price := bars[len(bars)-6].Close
	for i := len(bars) - 5; i < len(bars); i++ {
		price *= 0.98
		bars[i].Close = price
		bars[i].DailyReturn = -2
	}

	e := New()
	p := e.Rate("HAG", bars, driftBars(250, 0.3))
	if p.State != models.RSDeclining {
		t.Fatalf("expected DECLINING, got %s (rs=%v trend=%v)", p.State, p.RSPercent, p.RSTrend)
	}
	if p.Bucket != models.BucketWeak {
		t.Fatalf("laggard must bucket WEAK, got %s", p.Bucket)
	}
	if p.IsActive {
		t.Fatalf("a laggard must not be active")
	}
	if p.Score < 0 {
		t.Fatalf("score must clamp at 0, got %v", p.Score)
	}
}

func TestRateShortLeadVector(t *testing.T) {
	// Long downtrend that turns sharply up in the last month: short
	// horizon leads alone while the long horizon stays negative.
	bars := driftBars(250, -0.4)
	price := bars[len(bars)-25].Close
	for i := len(bars) - 24; i < len(bars); i++ {
		price *= 1.015
		bars[i].Close = price
		bars[i].DailyReturn = 1.5
	}

	e := New()
	p := e.Rate("DIG", bars, driftBars(250, 0))
	if p.Vector != models.VectorDLead {
		t.Fatalf("expected D_LEAD, got %s", p.Vector)
	}
}

func TestClassifyStateTotal(t *testing.T) {
	cases := []struct {
		rsPct, trend float64
		want         models.RSState
	}{
		{5, 2, models.RSLeading},
		{1, 2, models.RSImproving},
		{5, 0, models.RSNeutral},
		{2, -3, models.RSWeakening},
		{-4, -3, models.RSDeclining},
	}
	for _, tc := range cases {
		if got := classifyState(tc.rsPct, tc.trend); got != tc.want {
			t.Fatalf("classifyState(%v, %v) = %s, want %s", tc.rsPct, tc.trend, got, tc.want)
		}
	}
}

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  models.RSBucket
	}{
		{85, models.BucketPrime},
		{84.9, models.BucketElite},
		{75, models.BucketElite},
		{60, models.BucketCore},
		{50, models.BucketQuality},
		{49.9, models.BucketWeak},
	}
	for _, tc := range cases {
		if got := bucket(tc.score); got != tc.want {
			t.Fatalf("bucket(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
