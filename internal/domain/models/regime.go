package models

import "time"

// RegimeState is the discrete market-wide risk posture. BLOCKED is an
// explicit sit-out state distinct from BEAR: it requires every layer to
// be weak, not just one.
type RegimeState string

const (
	RegimeBull    RegimeState = "BULL"
	RegimeNeutral RegimeState = "NEUTRAL"
	RegimeBear    RegimeState = "BEAR"
	RegimeBlocked RegimeState = "BLOCKED"
)

// CeilingBadge classifies the benchmark's own technical state.
type CeilingBadge string

const (
	CeilingIntact CeilingBadge = "INTACT"
	CeilingWeak   CeilingBadge = "WEAK"
	CeilingBroken CeilingBadge = "BROKEN"
)

// RotationLabel describes leadership between the large-cap and mid-cap
// sub-indices.
type RotationLabel string

const (
	RotationBroadAdvance RotationLabel = "BROAD_ADVANCE"
	RotationLargeLead    RotationLabel = "LARGE_CAP_LEAD"
	RotationMidLead      RotationLabel = "MID_CAP_LEAD"
	RotationStalling     RotationLabel = "STALLING"
	RotationBroadRetreat RotationLabel = "BROAD_RETREAT"
)

// BreadthQuadrant maps the (level, slope) pair of the percent of
// constituents above SMA50.
type BreadthQuadrant string

const (
	QuadrantBull           BreadthQuadrant = "BULL"
	QuadrantWeakeningBull  BreadthQuadrant = "WEAKENING_BULL"
	QuadrantRecoveringBear BreadthQuadrant = "RECOVERING_BEAR"
	QuadrantBear           BreadthQuadrant = "BEAR"
)

// RegimeLayer is one evaluated layer of the assessment: a badge, a
// bounded score contribution, and the metrics that drove it.
type RegimeLayer struct {
	Name    string
	Badge   string
	Score   float64
	Metrics map[string]float64
}

// BasketBreadth is the breadth reading for one basket of symbols.
type BasketBreadth struct {
	Basket   string
	Level    float64 // percent of members above SMA50
	Slope5   float64 // 5-bar regression slope of the level series
	Slope10  float64 // 10-bar regression slope
	Quadrant BreadthQuadrant
	Members  int
}

// AllocationBand is the equity-exposure guideline for a regime.
type AllocationBand struct {
	MinPct    float64
	MaxPct    float64
	Guideline string
}

// RegimeAssessment is the singleton per-run output of the four-layer
// market regime evaluation.
type RegimeAssessment struct {
	Timestamp time.Time

	Ceiling    RegimeLayer
	Components RegimeLayer
	Breadth    RegimeLayer
	Output     RegimeLayer

	Baskets []BasketBreadth
	AllWeak bool

	State      RegimeState
	Score      float64 // combined, -100..100
	Allocation AllocationBand
}
