package models

import "time"

// PriceBar is one daily OHLCV bar enriched with the indicators the
// classifiers read. Bars are immutable and ordered by Time ascending;
// a symbol's history is always a []PriceBar suffix of the full series.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	SMA20  float64
	SMA50  float64
	SMA200 float64

	RSI14      float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64

	BBUpper float64
	BBLower float64

	DailyReturn  float64 // close-over-close, percent
	Volatility20 float64 // annualized 20-bar volatility, percent
}

// Candle is a raw OHLCV row as delivered by the data provider, before
// the validated parse/enrichment step produces PriceBars.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
