package technical

import (
	"time"

	"VNSniper/internal/domain/models"
	domsvc "VNSniper/internal/domain/service"
	"VNSniper/internal/services/features"
)

// Single constant table for the whole classifier. Two slightly
// divergent threshold sets existed historically; these values are the
// one canonical set (see DESIGN.md).
const (
	// MinBars is the history required for a full classification.
	// Below it Classify returns a degraded WEAK profile.
	MinBars          = 20
	FallbackMomentum = 30

	breakoutWindow    = 60
	breakoutProximity = 0.99
	breakoutVolRatio  = 1.5

	confirmWindow    = 20
	confirmProximity = 0.985
	confirmVolRatio  = 1.2

	retestBand      = 0.02 // close within 2% of SMA20
	retestPriorLift = 1.02 // previous bar meaningfully above SMA20
	retestNearBand  = 0.03 // bonus band for retest quality

	trendSlopeLookback = 5 // SMA20 must exceed its value 5 bars ago

	baseSqueezeWidth = 0.07 // Bollinger width over SMA20
	baseSupportSlack = 0.98 // close holds near/above SMA50
)

// Rank weights. Rank only orders output; it is never shown as a
// percentage.
const (
	rankMomentumScale = 2.0
)

var rankTierBase = map[models.QualityTier]float64{
	models.TierPrime: 400,
	models.TierValid: 300,
	models.TierWatch: 200,
	models.TierAvoid: 100,
}

var rankPathBonus = map[models.TrendPath]float64{
	models.TrendSMajor: 90,
	models.TrendMajor:  60,
	models.TrendMinor:  30,
	models.TrendWeak:   0,
}

var rankSyncBonus = map[models.MTFSync]float64{
	models.MTFFull:    60,
	models.MTFPartial: 30,
	models.MTFWeak:    0,
}

var rankStateBonus = map[models.EntryState]float64{
	models.StateBreakout: 80,
	models.StateConfirm:  65,
	models.StateRetest:   50,
	models.StateTrend:    35,
	models.StateBase:     20,
	models.StateWeak:     0,
}

// Classifier derives per-symbol technical profiles. Stateless; safe
// for concurrent use.
type Classifier struct{}

func New() *Classifier { return &Classifier{} }

var _ domsvc.TechnicalClassifier = (*Classifier)(nil)

// Classify builds the TechnicalProfile for one symbol. It never fails:
// short histories yield the documented degraded profile so a screening
// pass always completes.
func (c *Classifier) Classify(symbol string, bars []models.PriceBar, ratios *models.FundamentalRatios) models.TechnicalProfile {
	p := models.TechnicalProfile{
		Symbol:           symbol,
		Timestamp:        time.Now(),
		QualityTier:      QualityTier(ratios),
		FundamentalScore: FundamentalScore(ratios),
	}

	if len(bars) > 0 {
		last := bars[len(bars)-1]
		p.Price = last.Close
		p.ChangePct = last.DailyReturn
		p.LiquidityValue = features.LiquidityValue(bars)
		p.VolumeRatio = features.VolumeRatio(bars)
	}

	if len(bars) < MinBars {
		p.State = models.StateWeak
		p.TrendPath = models.TrendWeak
		p.MTFSync = models.MTFWeak
		p.MomentumPhase = models.PhaseLow
		p.MomentumIndex = FallbackMomentum
		p.Rank = rank(p)
		return p
	}

	last := bars[len(bars)-1]
	p.TrendPath = trendPath(last)
	p.MTFSync = mtfSync(last)
	p.State = entryState(bars, last, p.VolumeRatio)
	p.MomentumIndex = momentumIndex(bars, last, p.TrendPath)
	p.MomentumPhase = momentumPhase(last)
	p.RetestQuality = retestQuality(bars, last)
	p.Rank = rank(p)
	return p
}

// trendPath follows the SMA stacking order: stricter stacks win.
func trendPath(b models.PriceBar) models.TrendPath {
	switch {
	case b.SMA200 > 0 && b.Close > b.SMA20 && b.SMA20 > b.SMA50 && b.SMA50 > b.SMA200:
		return models.TrendSMajor
	case b.SMA200 > 0 && b.Close > b.SMA50 && b.SMA50 > b.SMA200:
		return models.TrendMajor
	case b.SMA200 > 0 && b.Close > b.SMA200:
		return models.TrendMinor
	default:
		return models.TrendWeak
	}
}

// mtfSync: above all three averages is SYNC; above an adjacent pair
// (short+medium or medium+long) is PARTIAL.
func mtfSync(b models.PriceBar) models.MTFSync {
	above20 := b.SMA20 > 0 && b.Close > b.SMA20
	above50 := b.SMA50 > 0 && b.Close > b.SMA50
	above200 := b.SMA200 > 0 && b.Close > b.SMA200

	switch {
	case above20 && above50 && above200:
		return models.MTFFull
	case (above20 && above50) || (above50 && above200):
		return models.MTFPartial
	default:
		return models.MTFWeak
	}
}

// entryState is a first-match state machine; the order is fixed because
// breakout signals are rarer and more valuable, so they pre-empt weaker
// classifications a symbol may also satisfy.
func entryState(bars []models.PriceBar, last models.PriceBar, volRatio float64) models.EntryState {
	if high60 := features.HighestHigh(bars, breakoutWindow); high60 > 0 &&
		last.Close >= breakoutProximity*high60 && volRatio >= breakoutVolRatio {
		return models.StateBreakout
	}

	if high20 := features.HighestHigh(bars, confirmWindow); high20 > 0 &&
		last.Close >= confirmProximity*high20 && volRatio >= confirmVolRatio &&
		last.SMA20 > 0 && last.Close > last.SMA20 {
		return models.StateConfirm
	}

	if last.SMA20 > 0 && last.SMA50 > 0 && len(bars) >= 2 {
		prev := bars[len(bars)-2]
		dist := last.Close/last.SMA20 - 1
		if dist >= -retestBand && dist <= retestBand &&
			prev.SMA20 > 0 && prev.Close >= prev.SMA20*retestPriorLift &&
			last.Close > last.SMA50 {
			return models.StateRetest
		}
	}

	if last.SMA20 > 0 && last.SMA50 > 0 && last.Close > last.SMA20 &&
		last.SMA20 > last.SMA50 && sma20Rising(bars) {
		return models.StateTrend
	}

	if last.SMA20 > 0 && last.SMA50 > 0 && last.BBUpper > last.BBLower {
		width := (last.BBUpper - last.BBLower) / last.SMA20
		if width < baseSqueezeWidth && last.Close >= last.SMA50*baseSupportSlack {
			return models.StateBase
		}
	}

	return models.StateWeak
}

func sma20Rising(bars []models.PriceBar) bool {
	if len(bars) <= trendSlopeLookback {
		return false
	}
	prior := bars[len(bars)-1-trendSlopeLookback].SMA20
	return prior > 0 && bars[len(bars)-1].SMA20 > prior
}

// momentumIndex is a weighted sum of four ~25-point components: RSI
// momentum, MACD position and histogram acceleration, MA stacking, and
// volume-confirmed advance. Always clamped to [0,100].
func momentumIndex(bars []models.PriceBar, last models.PriceBar, path models.TrendPath) float64 {
	score := 0.0

	switch {
	case last.RSI14 >= 60:
		score += 25
	case last.RSI14 >= 50:
		score += 18
	case last.RSI14 >= 40:
		score += 10
	case last.RSI14 > 0:
		score += 4
	}

	if last.MACD > last.MACDSignal {
		score += 15
	}
	if len(bars) >= 2 && last.MACDHist > bars[len(bars)-2].MACDHist {
		score += 10
	}

	switch path {
	case models.TrendSMajor:
		score += 25
	case models.TrendMajor:
		score += 18
	case models.TrendMinor:
		score += 10
	}

	volRatio := features.VolumeRatio(bars)
	switch {
	case last.DailyReturn > 0 && volRatio >= 1.5:
		score += 25
	case last.DailyReturn > 0 && volRatio >= 1.2:
		score += 15
	case last.DailyReturn > 0:
		score += 8
	}

	return clamp(score, 0, 100)
}

// momentumPhase is a separate rule-based read; it may disagree with the
// momentum index and both are reported.
func momentumPhase(b models.PriceBar) models.MomentumPhase {
	switch {
	case b.RSI14 >= 75 || (b.RSI14 >= 70 && b.SMA20 > 0 && b.Close > b.SMA20*1.08):
		return models.PhasePeak
	case b.RSI14 >= 60 && b.MACD > b.MACDSignal:
		return models.PhaseHigh
	case b.RSI14 >= 45:
		return models.PhaseMid
	default:
		return models.PhaseLow
	}
}

// retestQuality starts at 50 and adds fixed bonuses for a pullback that
// looks orderly: close near SMA20, contracting volume, neutral RSI, and
// a pullback from a recent high that held SMA50.
func retestQuality(bars []models.PriceBar, last models.PriceBar) float64 {
	score := 50.0

	if last.SMA20 > 0 {
		dist := last.Close/last.SMA20 - 1
		if dist >= -retestNearBand && dist <= retestNearBand {
			score += 15
		}
	}

	if features.AvgVolume(bars, 5) < features.AvgVolume(bars, 20) {
		score += 15
	}

	if last.RSI14 >= 40 && last.RSI14 <= 55 {
		score += 10
	}

	if len(bars) >= 6 {
		ago := bars[len(bars)-6]
		if last.Close < ago.High && last.SMA50 > 0 && last.Close > last.SMA50 {
			score += 10
		}
	}

	return clamp(score, 0, 100)
}

func rank(p models.TechnicalProfile) float64 {
	return rankTierBase[p.QualityTier] +
		p.MomentumIndex*rankMomentumScale +
		rankPathBonus[p.TrendPath] +
		rankSyncBonus[p.MTFSync] +
		rankStateBonus[p.State]
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
