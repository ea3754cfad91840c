package models

import "time"

// RSState is the relative-strength state ladder, strongest first.
type RSState string

const (
	RSLeading   RSState = "LEADING"
	RSImproving RSState = "IMPROVING"
	RSNeutral   RSState = "NEUTRAL"
	RSWeakening RSState = "WEAKENING"
	RSDeclining RSState = "DECLINING"
)

// RSVector describes which horizons carry the excess return.
type RSVector string

const (
	VectorSync  RSVector = "SYNC"   // all three horizons positive
	VectorDLead RSVector = "D_LEAD" // short horizon leads alone
	VectorMLead RSVector = "M_LEAD" // long horizon leads alone
	VectorNeut  RSVector = "NEUT"
)

// RSBucket is the threshold ladder over the final score.
type RSBucket string

const (
	BucketPrime   RSBucket = "PRIME"   // score >= 85
	BucketElite   RSBucket = "ELITE"   // score >= 75
	BucketCore    RSBucket = "CORE"    // score >= 60
	BucketQuality RSBucket = "QUALITY" // score >= 50
	BucketWeak    RSBucket = "WEAK"
)

// RelativeStrengthProfile is the per-symbol output of the RS engine for
// one run, measured against the benchmark index.
type RelativeStrengthProfile struct {
	Symbol    string
	Timestamp time.Time

	Price          float64
	ChangePct      float64
	LiquidityValue float64

	RSPercent float64 // weighted blend of horizon excess returns
	RSTrend   float64 // short-horizon excess now minus 5 bars ago

	State  RSState
	Vector RSVector
	Bucket RSBucket

	Score    float64 // 0..100
	IsActive bool    // Leading or Improving
}
