package usecase

import (
	"context"
	"testing"
	"time"

	"VNSniper/internal/domain/models"
)

func seededScreener(t *testing.T, res *models.AnalysisResult) *Screener {
	t.Helper()
	s := newTestScreener(t, testMarket())
	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()
	return s
}

func TestStrategyUnknown(t *testing.T) {
	uc := NewStrategyUseCase(newTestScreener(t, testMarket()))
	if _, err := uc.Run(context.Background(), "yolo"); err == nil {
		t.Fatalf("unknown preset must fail")
	}
}

func TestStrategyTrading(t *testing.T) {
	res := &models.AnalysisResult{
		GeneratedAt: time.Now(),
		TechnicalProfiles: []models.TechnicalProfile{
			{
				Symbol: "FPT", State: models.StateBreakout,
				FundamentalScore: 75, MomentumIndex: 85, Rank: 600,
			},
			{
				Symbol: "HAG", State: models.StateWeak,
				FundamentalScore: 30, MomentumIndex: 10, Rank: 100,
			},
		},
		RSProfiles: []models.RelativeStrengthProfile{
			{Symbol: "FPT", Score: 88, State: models.RSLeading},
			{Symbol: "HAG", Score: 20, State: models.RSDeclining},
		},
	}

	uc := NewStrategyUseCase(seededScreener(t, res))
	out, err := uc.Run(context.Background(), "trading")
	if err != nil {
		t.Fatalf("trading preset: %v", err)
	}
	if out.TotalQualified != 1 {
		t.Fatalf("expected 1 qualified, got %d", out.TotalQualified)
	}

	var fpt, hag *models.StrategyRecommendation
	for i := range out.Recommendations {
		switch out.Recommendations[i].Symbol {
		case "FPT":
			fpt = &out.Recommendations[i]
		case "HAG":
			hag = &out.Recommendations[i]
		}
	}
	if fpt == nil {
		t.Fatalf("FPT missing from recommendations")
	}
	if fpt.Action != models.ActionStrongBuy {
		t.Fatalf("expected STRONG_BUY for FPT, got %s", fpt.Action)
	}
	// 0.2*75 + 0.4*85 + 0.4*88 = 84.2
	if fpt.Score < 84 || fpt.Score > 84.5 {
		t.Fatalf("unexpected composite score %v", fpt.Score)
	}
	if hag == nil || hag.Action != models.ActionSell {
		t.Fatalf("a weak decliner must read SELL, got %+v", hag)
	}
}

func TestStrategyInvestingGatesFundamentals(t *testing.T) {
	res := &models.AnalysisResult{
		GeneratedAt: time.Now(),
		TechnicalProfiles: []models.TechnicalProfile{
			{
				Symbol: "NVL", State: models.StateTrend,
				FundamentalScore: 40, MomentumIndex: 80, Rank: 500,
			},
		},
		RSProfiles: []models.RelativeStrengthProfile{
			{Symbol: "NVL", Score: 80, State: models.RSLeading},
		},
	}

	uc := NewStrategyUseCase(seededScreener(t, res))
	out, err := uc.Run(context.Background(), "investing")
	if err != nil {
		t.Fatalf("investing preset: %v", err)
	}
	if out.TotalQualified != 0 {
		t.Fatalf("poor fundamentals must not qualify for investing, got %d", out.TotalQualified)
	}
}

func TestStrategyQualifiedCountSpansFullRun(t *testing.T) {
	res := &models.AnalysisResult{GeneratedAt: time.Now()}
	for _, sym := range []string{
		"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH", "III", "JJJ",
		"KKK", "LLL", "MMM", "NNN", "OOO", "PPP", "QQQ", "RRR", "SSS", "TTT",
	} {
		res.TechnicalProfiles = append(res.TechnicalProfiles, models.TechnicalProfile{
			Symbol: sym, State: models.StateBreakout,
			FundamentalScore: 70, MomentumIndex: 80,
		})
		res.RSProfiles = append(res.RSProfiles, models.RelativeStrengthProfile{
			Symbol: sym, Score: 85, State: models.RSLeading,
		})
	}

	uc := NewStrategyUseCase(seededScreener(t, res))
	out, err := uc.Run(context.Background(), "trading")
	if err != nil {
		t.Fatalf("trading preset: %v", err)
	}
	if out.TotalQualified != 20 {
		t.Fatalf("all 20 symbols qualify, got %d", out.TotalQualified)
	}
	if len(out.Recommendations) != Presets["trading"].MaxResults {
		t.Fatalf("recommendations must be capped at %d, got %d",
			Presets["trading"].MaxResults, len(out.Recommendations))
	}
}

func TestPresetWeightsSum(t *testing.T) {
	for name, p := range Presets {
		sum := p.WeightFundamental + p.WeightMomentum + p.WeightRS
		if sum < 0.999 || sum > 1.001 {
			t.Fatalf("preset %s weights sum to %v", name, sum)
		}
	}
}
