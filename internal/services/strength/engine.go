package strength

import (
	"time"

	"VNSniper/internal/domain/models"
	domsvc "VNSniper/internal/domain/service"
	"VNSniper/internal/services/features"
)

// Horizon and threshold table for the RS engine. Horizons are clamped
// to the available history on both legs.
const (
	// MinBars below which Rate returns the neutral inactive profile.
	MinBars       = 20
	FallbackScore = 30

	horizonShort  = 20
	horizonMedium = 50
	horizonLong   = 200

	weightShort  = 0.5
	weightMedium = 0.3
	weightLong   = 0.2

	trendLookback = 5 // bars back for the momentum-of-momentum read

	leadingMinRS   = 3.0 // materially positive RS%
	improvingTrend = 1.0 // clearly positive trend
	strongLead     = 3.0 // horizon excess that counts as a lone lead
)

var vectorBonus = map[models.RSVector]float64{
	models.VectorSync:  15,
	models.VectorDLead: 8,
	models.VectorMLead: 4,
	models.VectorNeut:  0,
}

var stateBonus = map[models.RSState]float64{
	models.RSLeading:   15,
	models.RSImproving: 10,
	models.RSNeutral:   0,
	models.RSWeakening: -5,
	models.RSDeclining: -15,
}

// Engine computes relative strength against a benchmark. Stateless.
type Engine struct{}

func New() *Engine { return &Engine{} }

var _ domsvc.StrengthRater = (*Engine)(nil)

// Rate builds the RelativeStrengthProfile for one symbol. Histories
// shorter than MinBars on either leg yield a neutral inactive profile.
func (e *Engine) Rate(symbol string, bars, benchmark []models.PriceBar) models.RelativeStrengthProfile {
	p := models.RelativeStrengthProfile{
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
	if len(bars) > 0 {
		last := bars[len(bars)-1]
		p.Price = last.Close
		p.ChangePct = last.DailyReturn
		p.LiquidityValue = features.LiquidityValue(bars)
	}

	if len(bars) < MinBars || len(benchmark) < MinBars {
		p.State = models.RSNeutral
		p.Vector = models.VectorNeut
		p.Bucket = models.BucketWeak
		p.Score = FallbackScore
		return p
	}

	eShort := excessReturn(bars, benchmark, horizonShort, 0)
	eMedium := excessReturn(bars, benchmark, horizonMedium, 0)
	eLong := excessReturn(bars, benchmark, horizonLong, 0)

	p.RSPercent = weightShort*eShort + weightMedium*eMedium + weightLong*eLong
	p.RSTrend = eShort - excessReturn(bars, benchmark, horizonShort, trendLookback)

	p.State = classifyState(p.RSPercent, p.RSTrend)
	p.Vector = classifyVector(eShort, eMedium, eLong)
	p.Score = score(p.RSPercent, p.RSTrend, p.Vector, p.State)
	p.Bucket = bucket(p.Score)
	p.IsActive = p.State == models.RSLeading || p.State == models.RSImproving
	return p
}

// excessReturn is symbol return minus benchmark return over the same
// horizon, optionally measured as of `asOf` bars before the end.
func excessReturn(bars, benchmark []models.PriceBar, horizon, asOf int) float64 {
	return features.TrailingReturn(bars, horizon, asOf) -
		features.TrailingReturn(benchmark, horizon, asOf)
}

// classifyState is a first-match ladder; the arms are arranged so the
// result is total over all (rsPct, trend) pairs.
func classifyState(rsPct, trend float64) models.RSState {
	switch {
	case rsPct >= leadingMinRS && trend > 0:
		return models.RSLeading
	case trend >= improvingTrend:
		return models.RSImproving
	case trend > -improvingTrend:
		return models.RSNeutral
	case rsPct > 0:
		return models.RSWeakening
	default:
		return models.RSDeclining
	}
}

func classifyVector(eShort, eMedium, eLong float64) models.RSVector {
	switch {
	case eShort > 0 && eMedium > 0 && eLong > 0:
		return models.VectorSync
	case eShort >= strongLead && eLong <= 0:
		return models.VectorDLead
	case eLong >= strongLead && eShort <= 0:
		return models.VectorMLead
	default:
		return models.VectorNeut
	}
}

// score is 50 plus bounded contributions; always clamped to [0,100].
func score(rsPct, trend float64, v models.RSVector, s models.RSState) float64 {
	total := 50.0
	total += clamp(rsPct*1.5, -20, 20)
	total += clamp(trend*2, -10, 10)
	total += vectorBonus[v]
	total += stateBonus[s]
	return clamp(total, 0, 100)
}

// bucket is a non-overlapping threshold ladder; boundaries belong to
// the higher bucket (score 85 is PRIME, 84.99 is ELITE).
func bucket(score float64) models.RSBucket {
	switch {
	case score >= 85:
		return models.BucketPrime
	case score >= 75:
		return models.BucketElite
	case score >= 60:
		return models.BucketCore
	case score >= 50:
		return models.BucketQuality
	default:
		return models.BucketWeak
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
