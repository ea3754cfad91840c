package features

import (
	"math"
	"testing"
	"time"

	"VNSniper/internal/domain/models"
)

func candles(closes []float64) []models.Candle {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Time:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 100_000,
		}
	}
	return out
}

func TestEnrichPreservesOrder(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := Enrich(candles(closes))
	if len(bars) != 60 {
		t.Fatalf("expected 60 bars, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("bar %d out of order", i)
		}
	}
	if bars[0].SMA20 != 0 {
		t.Fatalf("SMA20 must be zero before the window fills, got %v", bars[0].SMA20)
	}
	want := 0.0
	for _, c := range closes[40:] {
		want += c
	}
	want /= 20
	if math.Abs(bars[59].SMA20-want) > 1e-9 {
		t.Fatalf("SMA20 = %v, want %v", bars[59].SMA20, want)
	}
}

func TestEnrichEmpty(t *testing.T) {
	if got := Enrich(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestRSIMonotoneRally(t *testing.T) {
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		price *= 1.01
		closes[i] = price
	}
	bars := Enrich(candles(closes))
	rsi := bars[len(bars)-1].RSI14
	if rsi < 90 {
		t.Fatalf("an unbroken rally must read near 100, got %v", rsi)
	}
	if rsi > 100 {
		t.Fatalf("RSI above 100: %v", rsi)
	}
}

func TestRSIFlatSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	bars := Enrich(candles(closes))
	if got := bars[len(bars)-1].RSI14; got != 50 {
		t.Fatalf("a flat series must read 50, got %v", got)
	}
}

func TestMACDSignRally(t *testing.T) {
	closes := make([]float64, 80)
	price := 100.0
	for i := range closes {
		price *= 1.01
		closes[i] = price
	}
	bars := Enrich(candles(closes))
	last := bars[len(bars)-1]
	if last.MACD <= 0 {
		t.Fatalf("rally MACD must be positive, got %v", last.MACD)
	}
	if last.MACD-last.MACDSignal != last.MACDHist {
		t.Fatalf("histogram must equal macd-signal")
	}
}

func TestDailyReturn(t *testing.T) {
	bars := Enrich(candles([]float64{100, 102, 96.9}))
	if bars[0].DailyReturn != 0 {
		t.Fatalf("first bar has no return, got %v", bars[0].DailyReturn)
	}
	if math.Abs(bars[1].DailyReturn-2) > 1e-9 {
		t.Fatalf("expected +2%%, got %v", bars[1].DailyReturn)
	}
	if math.Abs(bars[2].DailyReturn+5) > 1e-9 {
		t.Fatalf("expected -5%%, got %v", bars[2].DailyReturn)
	}
}

func TestTrailingReturnClamps(t *testing.T) {
	bars := Enrich(candles([]float64{100, 110, 121}))
	// Horizon longer than history falls back to the full span.
	got := TrailingReturn(bars, 200, 0)
	if math.Abs(got-21) > 1e-9 {
		t.Fatalf("expected 21%%, got %v", got)
	}
	if TrailingReturn(bars, 20, 5) != 0 {
		t.Fatalf("asOf beyond history must return 0")
	}
	if TrailingReturn(nil, 20, 0) != 0 {
		t.Fatalf("empty history must return 0")
	}
}

func TestVolumeRatioSpike(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	cs := candles(closes)
	for i := len(cs) - 5; i < len(cs); i++ {
		cs[i].Volume = 300_000
	}
	bars := Enrich(cs)
	got := VolumeRatio(bars)
	// 5-bar avg 300k over 20-bar avg 150k.
	if math.Abs(got-2) > 1e-9 {
		t.Fatalf("expected ratio 2, got %v", got)
	}
	if VolumeRatio(nil) != 1 {
		t.Fatalf("empty history must default to 1")
	}
}

func TestLiquidityValue(t *testing.T) {
	bars := Enrich(candles([]float64{100, 100, 100}))
	want := 100.0 * 100_000
	if math.Abs(LiquidityValue(bars)-want) > 1e-6 {
		t.Fatalf("expected %v, got %v", want, LiquidityValue(bars))
	}
}
