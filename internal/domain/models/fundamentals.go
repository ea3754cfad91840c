package models

// FundamentalRatios is a snapshot of a symbol's fundamental ratios.
// Every field is a pointer: nil means the upstream feed did not report
// the value, which is distinct from a reported zero. Scoring code must
// skip nil fields rather than treat them as zero.
type FundamentalRatios struct {
	Symbol string

	PE *float64
	PB *float64

	ROE *float64 // percent
	ROA *float64 // percent

	EPS           *float64
	EPSGrowth     *float64 // percent, year over year
	RevenueGrowth *float64 // percent, year over year

	GrossMargin *float64 // percent
	NetMargin   *float64 // percent

	CurrentRatio *float64
	DebtToEquity *float64

	MarketCap         *float64
	SharesOutstanding *float64
}

// HasAny reports whether at least one ratio was delivered. A symbol
// with none falls back to the lenient default quality tier.
func (f *FundamentalRatios) HasAny() bool {
	if f == nil {
		return false
	}
	for _, p := range []*float64{
		f.PE, f.PB, f.ROE, f.ROA, f.EPS, f.EPSGrowth, f.RevenueGrowth,
		f.GrossMargin, f.NetMargin, f.CurrentRatio, f.DebtToEquity,
	} {
		if p != nil {
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for building ratio snapshots in tests
// and parse code.
func Float(v float64) *float64 { return &v }
