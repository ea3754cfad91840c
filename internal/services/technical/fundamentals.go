package technical

import "VNSniper/internal/domain/models"

// Quality-tier point table. One canonical scale: each ratio contributes
// a bounded increment, missing fields contribute nothing, and a symbol
// with no fundamentals at all defaults to WATCH rather than AVOID,
// since absence from the feed does not imply poor fundamentals.
const (
	tierPrimeMin = 6
	tierValidMin = 4
	tierWatchMin = 2
)

// QualityTier scores fundamentals into PRIME/VALID/WATCH/AVOID.
func QualityTier(r *models.FundamentalRatios) models.QualityTier {
	if !r.HasAny() {
		return models.TierWatch
	}

	points := 0

	if r.ROE != nil {
		switch {
		case *r.ROE >= 20:
			points += 2
		case *r.ROE >= 15:
			points++
		}
	}
	if r.EPSGrowth != nil {
		switch {
		case *r.EPSGrowth >= 20:
			points += 2
		case *r.EPSGrowth >= 10:
			points++
		}
	}
	if r.RevenueGrowth != nil && *r.RevenueGrowth >= 15 {
		points++
	}
	if r.PE != nil {
		switch {
		case *r.PE > 0 && *r.PE <= 15:
			points++
		case *r.PE > 25:
			points--
		}
	}
	if r.EPS != nil && *r.EPS >= 3000 {
		points++
	}
	if r.NetMargin != nil && *r.NetMargin >= 15 {
		points++
	}
	if r.CurrentRatio != nil && *r.CurrentRatio >= 1.5 {
		points++
	}
	if r.DebtToEquity != nil && *r.DebtToEquity <= 1.0 {
		points++
	}

	switch {
	case points >= tierPrimeMin:
		return models.TierPrime
	case points >= tierValidMin:
		return models.TierValid
	case points >= tierWatchMin:
		return models.TierWatch
	default:
		return models.TierAvoid
	}
}

// FundamentalScore is the 0-100 fundamentals score used by the strategy
// presets: 50 base with bounded field-by-field adjustments. Missing
// fields skip their contribution entirely.
func FundamentalScore(r *models.FundamentalRatios) float64 {
	score := 50.0
	if !r.HasAny() {
		return score
	}

	if r.PE != nil && *r.PE > 0 {
		switch {
		case *r.PE < 8:
			score += 15
		case *r.PE < 12:
			score += 10
		case *r.PE < 15:
			score += 5
		case *r.PE > 25:
			score -= 10
		}
	}
	if r.PB != nil && *r.PB > 0 {
		switch {
		case *r.PB < 1:
			score += 10
		case *r.PB < 1.5:
			score += 5
		case *r.PB > 3:
			score -= 5
		}
	}
	if r.ROE != nil && *r.ROE > 0 {
		switch {
		case *r.ROE > 20:
			score += 15
		case *r.ROE > 15:
			score += 10
		case *r.ROE > 10:
			score += 5
		case *r.ROE < 5:
			score -= 10
		}
	}
	if r.ROA != nil && *r.ROA > 0 {
		switch {
		case *r.ROA > 10:
			score += 10
		case *r.ROA > 5:
			score += 5
		}
	}
	if r.CurrentRatio != nil {
		switch {
		case *r.CurrentRatio >= 2:
			score += 10
		case *r.CurrentRatio >= 1.5:
			score += 5
		case *r.CurrentRatio < 1:
			score -= 15
		}
	}
	if r.DebtToEquity != nil {
		switch {
		case *r.DebtToEquity < 0.5:
			score += 5
		case *r.DebtToEquity > 2:
			score -= 10
		}
	}
	if r.NetMargin != nil && *r.NetMargin > 20 {
		score += 5
	}

	return clamp(score, 0, 100)
}
