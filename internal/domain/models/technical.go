package models

import "time"

// TrendPath describes how the close stacks against SMA20/50/200.
type TrendPath string

const (
	TrendSMajor TrendPath = "S_MAJOR" // close > SMA20 > SMA50 > SMA200
	TrendMajor  TrendPath = "MAJOR"   // close > SMA50 > SMA200
	TrendMinor  TrendPath = "MINOR"   // close > SMA200
	TrendWeak   TrendPath = "WEAK"
)

// MTFSync is the multi-timeframe agreement of price versus the three
// moving averages.
type MTFSync string

const (
	MTFFull    MTFSync = "SYNC"
	MTFPartial MTFSync = "PARTIAL"
	MTFWeak    MTFSync = "WEAK"
)

// EntryState is the prioritized entry/continuation state. Earlier states
// pre-empt later ones; classification always yields exactly one.
type EntryState string

const (
	StateBreakout EntryState = "BREAKOUT"
	StateConfirm  EntryState = "CONFIRM"
	StateRetest   EntryState = "RETEST"
	StateTrend    EntryState = "TREND"
	StateBase     EntryState = "BASE"
	StateWeak     EntryState = "WEAK"
)

// QualityTier ranks fundamentals. WATCH is the lenient default when the
// fundamentals feed has nothing for a symbol.
type QualityTier string

const (
	TierPrime QualityTier = "PRIME"
	TierValid QualityTier = "VALID"
	TierWatch QualityTier = "WATCH"
	TierAvoid QualityTier = "AVOID"
)

// MomentumPhase is a rule-based read of RSI/MACD/price versus SMA20,
// reported alongside (and independent of) the momentum index.
type MomentumPhase string

const (
	PhasePeak MomentumPhase = "PEAK"
	PhaseHigh MomentumPhase = "HIGH"
	PhaseMid  MomentumPhase = "MID"
	PhaseLow  MomentumPhase = "LOW"
)

// TechnicalProfile is the per-symbol output of one classification run.
// It is rebuilt from scratch each run and never mutated in place.
type TechnicalProfile struct {
	Symbol    string
	Timestamp time.Time

	Price          float64
	ChangePct      float64
	LiquidityValue float64 // avg daily traded value, price x volume

	State         EntryState
	TrendPath     TrendPath
	MTFSync       MTFSync
	QualityTier   QualityTier
	MomentumPhase MomentumPhase

	MomentumIndex float64 // 0..100
	RetestQuality float64 // 0..100
	VolumeRatio   float64 // 5-bar avg volume over 20-bar avg

	FundamentalScore float64 // 0..100, strategy-preset input

	Rank float64 // composite ordering key, not a percentage
}
