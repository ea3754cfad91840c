package regime

import (
	"fmt"
	"testing"

	"VNSniper/internal/domain/models"
	domsvc "VNSniper/internal/domain/service"
	"VNSniper/internal/services/technical"
)

func indexBars(n int, close, sma50, sma200, rsi, macd, macdSig float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			Close:      close,
			High:       close,
			SMA20:      close * 0.98,
			SMA50:      sma50,
			SMA200:     sma200,
			RSI14:      rsi,
			MACD:       macd,
			MACDSignal: macdSig,
		}
	}
	return bars
}

// risingIndex flips from a soft read to a strong one over the last
// five bars so the momentum delta is clearly positive.
func risingIndex(n int) []models.PriceBar {
	bars := indexBars(n, 1300, 1250, 1200, 45, -1, 1)
	for i := n - 5; i < n; i++ {
		bars[i].RSI14 = 65
		bars[i].MACD = 5
		bars[i].MACDSignal = 3
	}
	return bars
}

func fallingIndex(n int) []models.PriceBar {
	bars := indexBars(n, 1300, 1250, 1200, 65, 5, 3)
	for i := n - 5; i < n; i++ {
		bars[i].RSI14 = 40
		bars[i].MACD = -1
		bars[i].MACDSignal = 1
	}
	return bars
}

func healthyMembers(n int) map[string][]models.PriceBar {
	members := map[string][]models.PriceBar{}
	for m := 0; m < n; m++ {
		bars := make([]models.PriceBar, 40)
		for i := range bars {
			bars[i] = models.PriceBar{Close: 110, SMA50: 100}
		}
		members[fmt.Sprintf("S%02d", m)] = bars
	}
	return members
}

// decliningMembers staggers each member's break below SMA50 so the
// breadth series falls steadily through the window.
func decliningMembers(n int) map[string][]models.PriceBar {
	members := map[string][]models.PriceBar{}
	for m := 0; m < n; m++ {
		bars := make([]models.PriceBar, 40)
		for i := range bars {
			close := 90.0
			if i < len(bars)-1-m {
				close = 110
			}
			bars[i] = models.PriceBar{Close: close, SMA50: 100}
		}
		members[fmt.Sprintf("S%02d", m)] = bars
	}
	return members
}

func TestAssessBull(t *testing.T) {
	a := New(technical.New())
	out := a.Assess(domsvc.RegimeInputs{
		Benchmark: indexBars(40, 1300, 1250, 1200, 58, 5, 3),
		LargeCap:  risingIndex(40),
		MidCap:    risingIndex(40),
		Baskets: map[string]map[string][]models.PriceBar{
			UniverseBasket: healthyMembers(10),
			"VN30":         healthyMembers(10),
		},
	})

	if out.State != models.RegimeBull {
		t.Fatalf("expected BULL, got %s (score %v)", out.State, out.Score)
	}
	if out.Ceiling.Badge != string(models.CeilingIntact) {
		t.Fatalf("expected intact ceiling, got %s", out.Ceiling.Badge)
	}
	if out.Components.Badge != string(models.RotationBroadAdvance) {
		t.Fatalf("expected broad advance, got %s", out.Components.Badge)
	}
	if out.Allocation.MinPct != 70 || out.Allocation.MaxPct != 100 {
		t.Fatalf("unexpected bull allocation: %+v", out.Allocation)
	}
	if out.AllWeak {
		t.Fatalf("healthy baskets must not read all-weak")
	}
}

func TestAssessBlocked(t *testing.T) {
	a := New(technical.New())
	out := a.Assess(domsvc.RegimeInputs{
		Benchmark: indexBars(40, 1100, 1180, 1200, 38, -4, -1),
		LargeCap:  fallingIndex(40),
		MidCap:    fallingIndex(40),
		Baskets: map[string]map[string][]models.PriceBar{
			UniverseBasket: decliningMembers(10),
			"VN30":         decliningMembers(10),
		},
	})

	if !out.AllWeak {
		t.Fatalf("every basket in the bear quadrant must read all-weak")
	}
	if out.State != models.RegimeBlocked {
		t.Fatalf("expected BLOCKED, got %s (score %v)", out.State, out.Score)
	}
	if out.Allocation.MaxPct != 0 {
		t.Fatalf("blocked allocation must be zero, got %+v", out.Allocation)
	}
}

// flatWeakMembers hold below SMA50 through the whole window, so the
// breadth series sits at 0% with zero slope.
func flatWeakMembers(n int) map[string][]models.PriceBar {
	members := map[string][]models.PriceBar{}
	for m := 0; m < n; m++ {
		bars := make([]models.PriceBar, 40)
		for i := range bars {
			bars[i] = models.PriceBar{Close: 90, SMA50: 100}
		}
		members[fmt.Sprintf("S%02d", m)] = bars
	}
	return members
}

func TestAssessBlockedSteadyState(t *testing.T) {
	// A market that has bottomed out: breadth pinned flat at 0%, both
	// sub-indices at a constant weak read (momentum delta zero), the
	// benchmark under SMA200. Nothing improves, so the sit-out state
	// must hold rather than flipping back to BEAR.
	a := New(technical.New())
	weakIndex := indexBars(40, 1100, 1180, 1200, 35, -4, -1)
	out := a.Assess(domsvc.RegimeInputs{
		Benchmark: indexBars(40, 1100, 1180, 1200, 38, -4, -1),
		LargeCap:  weakIndex,
		MidCap:    weakIndex,
		Baskets: map[string]map[string][]models.PriceBar{
			UniverseBasket: flatWeakMembers(10),
			"VN30":         flatWeakMembers(10),
		},
	})

	if out.Components.Score != 0 {
		t.Fatalf("constant weak sub-indices must score 0 components, got %v", out.Components.Score)
	}
	if !out.AllWeak {
		t.Fatalf("flat 0%% breadth must read all-weak, got %s", out.Breadth.Badge)
	}
	if out.State != models.RegimeBlocked {
		t.Fatalf("expected BLOCKED, got %s (score %v)", out.State, out.Score)
	}
}

func TestAssessBearNotBlocked(t *testing.T) {
	// One basket still holding up keeps the sit-out state off even
	// when the combined score is deeply negative.
	a := New(technical.New())
	out := a.Assess(domsvc.RegimeInputs{
		Benchmark: indexBars(40, 1100, 1180, 1200, 38, -4, -1),
		LargeCap:  fallingIndex(40),
		MidCap:    fallingIndex(40),
		Baskets: map[string]map[string][]models.PriceBar{
			UniverseBasket: decliningMembers(10),
			"MIDCAP":       healthyMembers(10),
		},
	})

	if out.AllWeak {
		t.Fatalf("a healthy basket must clear the all-weak flag")
	}
	if out.State != models.RegimeBear {
		t.Fatalf("expected BEAR, got %s (score %v)", out.State, out.Score)
	}
}

func TestAssessLayerBounds(t *testing.T) {
	a := New(technical.New())
	inputs := []domsvc.RegimeInputs{
		{},
		{Benchmark: indexBars(40, 1300, 1250, 1200, 58, 5, 3)},
		{
			Benchmark: indexBars(40, 1100, 1180, 1200, 38, -4, -1),
			LargeCap:  fallingIndex(40),
			MidCap:    risingIndex(40),
			Baskets: map[string]map[string][]models.PriceBar{
				UniverseBasket: decliningMembers(5),
			},
		},
	}
	for i, in := range inputs {
		out := a.Assess(in)
		if out.Ceiling.Score < -30 || out.Ceiling.Score > 30 {
			t.Fatalf("case %d: ceiling score out of bounds: %v", i, out.Ceiling.Score)
		}
		if out.Components.Score < -25 || out.Components.Score > 25 {
			t.Fatalf("case %d: components score out of bounds: %v", i, out.Components.Score)
		}
		if out.Breadth.Score < -25 || out.Breadth.Score > 25 {
			t.Fatalf("case %d: breadth score out of bounds: %v", i, out.Breadth.Score)
		}
		if out.Score < -100 || out.Score > 100 {
			t.Fatalf("case %d: combined score out of bounds: %v", i, out.Score)
		}
		if out.State == "" {
			t.Fatalf("case %d: assessment must always resolve a state", i)
		}
	}
}

func TestAllocationTableTotal(t *testing.T) {
	for _, s := range []models.RegimeState{
		models.RegimeBull, models.RegimeNeutral, models.RegimeBear, models.RegimeBlocked,
	} {
		band := AllocationFor(s)
		if band.Guideline == "" {
			t.Fatalf("missing allocation band for %s", s)
		}
		if band.MinPct > band.MaxPct {
			t.Fatalf("inverted band for %s: %+v", s, band)
		}
	}
}

func TestRegressionSlope(t *testing.T) {
	if s := regressionSlope([]float64{10, 20, 30, 40}); s <= 0 {
		t.Fatalf("rising series must have positive slope, got %v", s)
	}
	if s := regressionSlope([]float64{40, 30, 20, 10}); s >= 0 {
		t.Fatalf("falling series must have negative slope, got %v", s)
	}
	if s := regressionSlope([]float64{50}); s != 0 {
		t.Fatalf("degenerate series must slope 0, got %v", s)
	}
}
