package models

import "time"

// UniverseEntry is one row of the trading-activity snapshot.
type UniverseEntry struct {
	Symbol    string
	Exchange  string
	LastPrice float64
	ChangePct float64
	Volume    float64
}

// ExchangeBreadth is the advance/decline tally for one exchange.
type ExchangeBreadth struct {
	Exchange  string
	Advancing int
	Declining int
	Unchanged int
}

// Tick is a live price-board update from the streaming feed.
type Tick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp int64 // unix seconds
}

// AnalysisResult is the output of one full screening run. Profiles are
// sorted by rank/score descending with symbol ascending as tie-break,
// so two runs over identical snapshots produce identical output.
type AnalysisResult struct {
	GeneratedAt time.Time
	TopN        int

	TechnicalProfiles []TechnicalProfile
	RSProfiles        []RelativeStrengthProfile

	Tiers      map[string][]TechnicalProfile
	Categories map[string][]RelativeStrengthProfile

	Regime *RegimeAssessment

	// ExchangeBreadth is the provider's advance/decline tally per
	// exchange at run time, complementing the basket breadth layer.
	ExchangeBreadth []ExchangeBreadth

	Analyzed int // symbols attempted
	Skipped  int // symbols dropped for missing/short data or fetch errors
}

// SymbolAnalysis pairs both per-symbol views for single-symbol lookups.
type SymbolAnalysis struct {
	Symbol           string
	Technical        TechnicalProfile
	RelativeStrength RelativeStrengthProfile
	GeneratedAt      time.Time
}

// StrategyAction is the recommendation ladder of the strategy presets.
type StrategyAction string

const (
	ActionStrongBuy StrategyAction = "STRONG_BUY"
	ActionBuy       StrategyAction = "BUY"
	ActionWatch     StrategyAction = "WATCH"
	ActionAvoid     StrategyAction = "AVOID"
	ActionSell      StrategyAction = "SELL"
)

// StrategyRecommendation is one ranked pick for a strategy preset.
type StrategyRecommendation struct {
	Symbol        string
	Score         float64
	Action        StrategyAction
	MeetsCriteria bool
	Reasons       []string

	FundamentalScore float64
	MomentumIndex    float64
	RSScore          float64
}

// StrategyResult is the output of screening one strategy preset.
type StrategyResult struct {
	Strategy        string
	Timeframe       string
	TotalQualified  int
	Recommendations []StrategyRecommendation
	GeneratedAt     time.Time
}
