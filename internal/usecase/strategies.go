package usecase

import (
	"context"
	"fmt"
	"time"

	"VNSniper/internal/domain/models"
)

// StrategyPreset weighs the three per-symbol scores for one investing
// style and gates which entry states qualify.
type StrategyPreset struct {
	Name      string
	Timeframe string

	WeightFundamental float64
	WeightMomentum    float64
	WeightRS          float64

	MinFundamental float64
	MinMomentum    float64
	MinRSScore     float64
	AllowedStates  []models.EntryState

	MaxResults int
}

// Presets is the fixed strategy registry. Weights sum to 1 per preset.
var Presets = map[string]StrategyPreset{
	"investing": {
		Name:              "investing",
		Timeframe:         "6-18 months",
		WeightFundamental: 0.5,
		WeightMomentum:    0.2,
		WeightRS:          0.3,
		MinFundamental:    60,
		MinRSScore:        50,
		MaxResults:        15,
	},
	"trading": {
		Name:              "trading",
		Timeframe:         "2-8 weeks",
		WeightFundamental: 0.2,
		WeightMomentum:    0.4,
		WeightRS:          0.4,
		MinMomentum:       50,
		MinRSScore:        60,
		AllowedStates: []models.EntryState{
			models.StateBreakout, models.StateConfirm,
			models.StateRetest, models.StateTrend,
		},
		MaxResults: 10,
	},
	"speculation": {
		Name:              "speculation",
		Timeframe:         "3-10 days",
		WeightFundamental: 0.1,
		WeightMomentum:    0.5,
		WeightRS:          0.4,
		MinMomentum:       65,
		MinRSScore:        60,
		AllowedStates: []models.EntryState{
			models.StateBreakout, models.StateConfirm,
		},
		MaxResults: 5,
	},
}

// StrategyUseCase screens the latest analysis run through a preset.
type StrategyUseCase struct {
	screener *Screener
}

func NewStrategyUseCase(screener *Screener) *StrategyUseCase {
	return &StrategyUseCase{screener: screener}
}

// Run applies one preset over the latest run. It never refetches
// market data; a preset is a view over the run, not a new run.
func (uc *StrategyUseCase) Run(ctx context.Context, name string) (*models.StrategyResult, error) {
	preset, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}

	res, err := uc.screener.LatestResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", name, err)
	}

	rsBySymbol := make(map[string]models.RelativeStrengthProfile, len(res.RSProfiles))
	for _, p := range res.RSProfiles {
		rsBySymbol[p.Symbol] = p
	}

	out := &models.StrategyResult{
		Strategy:    preset.Name,
		Timeframe:   preset.Timeframe,
		GeneratedAt: time.Now(),
	}
	// TotalQualified counts over the whole run; MaxResults only caps
	// how many recommendations the response carries.
	for _, tech := range res.TechnicalProfiles {
		rs := rsBySymbol[tech.Symbol]
		rec := preset.evaluate(tech, rs)
		if rec.MeetsCriteria {
			out.TotalQualified++
		}
		if rec.Action == models.ActionAvoid && !rec.MeetsCriteria {
			continue
		}
		if preset.MaxResults > 0 && len(out.Recommendations) >= preset.MaxResults {
			continue
		}
		out.Recommendations = append(out.Recommendations, rec)
	}
	return out, nil
}

func (p StrategyPreset) evaluate(tech models.TechnicalProfile, rs models.RelativeStrengthProfile) models.StrategyRecommendation {
	rec := models.StrategyRecommendation{
		Symbol:           tech.Symbol,
		FundamentalScore: tech.FundamentalScore,
		MomentumIndex:    tech.MomentumIndex,
		RSScore:          rs.Score,
	}

	rec.Score = p.WeightFundamental*tech.FundamentalScore +
		p.WeightMomentum*tech.MomentumIndex +
		p.WeightRS*rs.Score

	rec.MeetsCriteria = true
	if tech.FundamentalScore < p.MinFundamental {
		rec.MeetsCriteria = false
		rec.Reasons = append(rec.Reasons, "fundamental score below minimum")
	}
	if tech.MomentumIndex < p.MinMomentum {
		rec.MeetsCriteria = false
		rec.Reasons = append(rec.Reasons, "momentum below minimum")
	}
	if rs.Score < p.MinRSScore {
		rec.MeetsCriteria = false
		rec.Reasons = append(rec.Reasons, "relative strength below minimum")
	}
	if len(p.AllowedStates) > 0 && !stateAllowed(tech.State, p.AllowedStates) {
		rec.MeetsCriteria = false
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("state %s not tradeable for this style", tech.State))
	}

	rec.Action = action(rec, tech, rs)
	return rec
}

func action(rec models.StrategyRecommendation, tech models.TechnicalProfile, rs models.RelativeStrengthProfile) models.StrategyAction {
	if tech.State == models.StateWeak && rs.State == models.RSDeclining {
		return models.ActionSell
	}
	if !rec.MeetsCriteria {
		return models.ActionAvoid
	}
	switch {
	case rec.Score >= 80:
		return models.ActionStrongBuy
	case rec.Score >= 65:
		return models.ActionBuy
	case rec.Score >= 50:
		return models.ActionWatch
	default:
		return models.ActionAvoid
	}
}

func stateAllowed(s models.EntryState, allowed []models.EntryState) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
