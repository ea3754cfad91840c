package regime

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"VNSniper/internal/domain/models"
	domsvc "VNSniper/internal/domain/service"
)

// Layer score bounds and thresholds. Layer scores are bounded so no
// single layer can dominate the combined read.
const (
	ceilingIntactScore = 30
	ceilingBrokenScore = -30
	ceilingTiltScore   = 5

	componentDelta     = 2.0 // momentum-index delta that counts as a move
	componentBroad     = 25
	componentLead      = 10
	componentStall     = -10
	componentLookback  = 5

	breadthLevelSplit  = 50.0
	breadthBullScore   = 25
	breadthFadingScore = 5
	breadthHealScore   = -5
	breadthBearScore   = -25
	breadthWindow      = 10

	combineScale = 1.25 // maps the [-80,80] layer sum onto [-100,100]

	regimeBullMin    = 40.0
	regimeNeutralMin = -20.0
)

// UniverseBasket is the basket key carrying the whole analysis universe.
const UniverseBasket = "ALL"

// allocationTable is the fixed regime -> exposure band lookup, total
// over the enum.
var allocationTable = map[models.RegimeState]models.AllocationBand{
	models.RegimeBull:    {MinPct: 70, MaxPct: 100, Guideline: "full participation, wide equity exposure"},
	models.RegimeNeutral: {MinPct: 30, MaxPct: 60, Guideline: "selective exposure, leaders only"},
	models.RegimeBear:    {MinPct: 0, MaxPct: 20, Guideline: "defensive, minimal equity exposure"},
	models.RegimeBlocked: {MinPct: 0, MaxPct: 0, Guideline: "stand aside, no layer shows strength"},
}

// AllocationFor returns the fixed allocation band for a regime state.
func AllocationFor(s models.RegimeState) models.AllocationBand { return allocationTable[s] }

// Assessor runs the four-layer regime evaluation once per analysis
// cycle. The classifier is used for the sub-index momentum trajectories
// so index momentum is read the same way as symbol momentum.
type Assessor struct {
	classifier domsvc.TechnicalClassifier
}

func New(classifier domsvc.TechnicalClassifier) *Assessor {
	return &Assessor{classifier: classifier}
}

var _ domsvc.RegimeAssessor = (*Assessor)(nil)

// Assess evaluates the four layers in their fixed order and combines
// them into exactly one of BULL/NEUTRAL/BEAR/BLOCKED.
func (a *Assessor) Assess(in domsvc.RegimeInputs) models.RegimeAssessment {
	out := models.RegimeAssessment{Timestamp: time.Now()}

	out.Ceiling = a.ceilingLayer(in.Benchmark)
	out.Components = a.componentsLayer(in.LargeCap, in.MidCap)
	out.Breadth, out.Baskets, out.AllWeak = a.breadthLayer(in.Baskets)

	combined := clamp((out.Ceiling.Score+out.Components.Score+out.Breadth.Score)*combineScale, -100, 100)
	state := a.resolveState(out, combined)

	out.State = state
	out.Score = combined
	out.Allocation = allocationTable[state]
	out.Output = models.RegimeLayer{
		Name:  "output",
		Badge: string(state),
		Score: combined,
		Metrics: map[string]float64{
			"ceiling":    out.Ceiling.Score,
			"components": out.Components.Score,
			"breadth":    out.Breadth.Score,
		},
	}
	return out
}

// ceilingLayer classifies the benchmark's own technical state.
func (a *Assessor) ceilingLayer(benchmark []models.PriceBar) models.RegimeLayer {
	layer := models.RegimeLayer{Name: "ceiling", Metrics: map[string]float64{}}
	if len(benchmark) == 0 {
		layer.Badge = string(models.CeilingBroken)
		layer.Score = ceilingBrokenScore
		return layer
	}

	last := benchmark[len(benchmark)-1]
	layer.Metrics["close"] = last.Close
	layer.Metrics["sma50"] = last.SMA50
	layer.Metrics["sma200"] = last.SMA200
	layer.Metrics["rsi"] = last.RSI14

	switch {
	case last.SMA50 > 0 && last.Close > last.SMA50 && last.RSI14 >= 50 && last.MACD > last.MACDSignal:
		layer.Badge = string(models.CeilingIntact)
		layer.Score = ceilingIntactScore
	case last.SMA200 > 0 && last.Close < last.SMA200:
		layer.Badge = string(models.CeilingBroken)
		layer.Score = ceilingBrokenScore
	default:
		layer.Badge = string(models.CeilingWeak)
		if last.MACD > last.MACDSignal {
			layer.Score = ceilingTiltScore
		} else {
			layer.Score = -ceilingTiltScore
		}
	}
	return layer
}

// componentsLayer compares the momentum trajectories of the large-cap
// and mid-cap sub-indices to detect leadership or rotation.
func (a *Assessor) componentsLayer(largeCap, midCap []models.PriceBar) models.RegimeLayer {
	dLarge := a.momentumDelta(largeCap)
	dMid := a.momentumDelta(midCap)

	layer := models.RegimeLayer{
		Name: "components",
		Metrics: map[string]float64{
			"large_cap_delta": dLarge,
			"mid_cap_delta":   dMid,
		},
	}

	switch {
	case dLarge >= componentDelta && dMid >= componentDelta:
		layer.Badge = string(models.RotationBroadAdvance)
		layer.Score = componentBroad
	case dLarge <= -componentDelta && dMid <= -componentDelta:
		layer.Badge = string(models.RotationBroadRetreat)
		layer.Score = -componentBroad
	case dLarge >= componentDelta:
		layer.Badge = string(models.RotationLargeLead)
		layer.Score = componentLead
	case dMid >= componentDelta:
		layer.Badge = string(models.RotationMidLead)
		layer.Score = componentLead
	case dLarge < 0 && dMid < 0:
		layer.Badge = string(models.RotationStalling)
		layer.Score = componentStall
	default:
		layer.Badge = string(models.RotationStalling)
		layer.Score = 0
	}
	return layer
}

// momentumDelta is the change of the momentum index over the lookback.
func (a *Assessor) momentumDelta(bars []models.PriceBar) float64 {
	if len(bars) <= componentLookback {
		return 0
	}
	now := a.classifier.Classify("", bars, nil).MomentumIndex
	then := a.classifier.Classify("", bars[:len(bars)-componentLookback], nil).MomentumIndex
	return now - then
}

// breadthLayer maps each basket's (level, slope) onto a quadrant; the
// universe basket drives the layer score and the all-weak flag trips
// only when every basket sits in the BEAR quadrant.
func (a *Assessor) breadthLayer(baskets map[string]map[string][]models.PriceBar) (models.RegimeLayer, []models.BasketBreadth, bool) {
	layer := models.RegimeLayer{Name: "breadth", Metrics: map[string]float64{}}

	readings := make([]models.BasketBreadth, 0, len(baskets))
	allWeak := len(baskets) > 0
	for name, members := range baskets {
		b := basketBreadth(name, members)
		readings = append(readings, b)
		if b.Quadrant != models.QuadrantBear {
			allWeak = false
		}
		layer.Metrics[name+"_level"] = b.Level
		layer.Metrics[name+"_slope5"] = b.Slope5
		if name == UniverseBasket {
			layer.Badge = string(b.Quadrant)
			layer.Score = quadrantScore(b.Quadrant)
		}
	}
	if layer.Badge == "" {
		layer.Badge = string(models.QuadrantBear)
		layer.Score = breadthBearScore
	}
	if allWeak {
		layer.Badge = "ALL_WEAK"
	}
	return layer, readings, allWeak
}

func quadrantScore(q models.BreadthQuadrant) float64 {
	switch q {
	case models.QuadrantBull:
		return breadthBullScore
	case models.QuadrantWeakeningBull:
		return breadthFadingScore
	case models.QuadrantRecoveringBear:
		return breadthHealScore
	default:
		return breadthBearScore
	}
}

// basketBreadth builds the percent-above-SMA50 series over the breadth
// window and regresses its slope.
func basketBreadth(name string, members map[string][]models.PriceBar) models.BasketBreadth {
	series := breadthSeries(members, breadthWindow)
	b := models.BasketBreadth{Basket: name, Members: len(members)}
	if len(series) == 0 {
		b.Quadrant = models.QuadrantBear
		return b
	}

	b.Level = series[len(series)-1]
	b.Slope5 = regressionSlope(tail(series, 5))
	b.Slope10 = regressionSlope(series)

	// Recovery needs a strictly positive slope: breadth pinned flat
	// below the split is a bear read, not a healing one.
	switch {
	case b.Level >= breadthLevelSplit && b.Slope5 >= 0:
		b.Quadrant = models.QuadrantBull
	case b.Level >= breadthLevelSplit:
		b.Quadrant = models.QuadrantWeakeningBull
	case b.Slope5 > 0:
		b.Quadrant = models.QuadrantRecoveringBear
	default:
		b.Quadrant = models.QuadrantBear
	}
	return b
}

// breadthSeries computes, for each of the trailing `window` bars, the
// percent of members whose close held above their SMA50 at that bar.
func breadthSeries(members map[string][]models.PriceBar, window int) []float64 {
	series := make([]float64, 0, window)
	for offset := window - 1; offset >= 0; offset-- {
		count, total := 0, 0
		for _, bars := range members {
			idx := len(bars) - 1 - offset
			if idx < 0 {
				continue
			}
			b := bars[idx]
			if b.SMA50 <= 0 {
				continue
			}
			total++
			if b.Close > b.SMA50 {
				count++
			}
		}
		if total == 0 {
			continue
		}
		series = append(series, float64(count)/float64(total)*100)
	}
	return series
}

func regressionSlope(ys []float64) float64 {
	if len(ys) < 2 {
		return 0
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}

// resolveState applies the fixed lookup from layer scores to the four
// operating modes. BLOCKED requires every layer weak, not just breadth;
// a components read of zero counts as weak so a market that has
// bottomed out flat stays BLOCKED instead of flipping back to BEAR.
func (a *Assessor) resolveState(out models.RegimeAssessment, combined float64) models.RegimeState {
	if out.Ceiling.Badge == string(models.CeilingBroken) &&
		out.Components.Score <= 0 && out.AllWeak {
		return models.RegimeBlocked
	}
	switch {
	case combined >= regimeBullMin:
		return models.RegimeBull
	case combined >= regimeNeutralMin:
		return models.RegimeNeutral
	default:
		return models.RegimeBear
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

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
