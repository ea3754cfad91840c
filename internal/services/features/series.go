package features

import "VNSniper/internal/domain/models"

// TrailingReturn is the percent return over the last `horizon` bars as
// of `asOf` bars before the end. The horizon is clamped to available
// history; returns 0 when fewer than two bars remain.
func TrailingReturn(bars []models.PriceBar, horizon, asOf int) float64 {
	end := len(bars) - asOf
	if end < 2 {
		return 0
	}
	start := end - horizon - 1
	if start < 0 {
		start = 0
	}
	base := bars[start].Close
	if base <= 0 {
		return 0
	}
	return (bars[end-1].Close/base - 1) * 100
}

// HighestHigh returns the maximum high over the trailing `window` bars.
func HighestHigh(bars []models.PriceBar, window int) float64 {
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	max := 0.0
	for _, b := range bars[start:] {
		if b.High > max {
			max = b.High
		}
	}
	return max
}

// AvgVolume is the mean volume over the trailing `window` bars.
func AvgVolume(bars []models.PriceBar, window int) float64 {
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	if start == len(bars) {
		return 0
	}
	sum := 0.0
	for _, b := range bars[start:] {
		sum += b.Volume
	}
	return sum / float64(len(bars)-start)
}

// VolumeRatio is the 5-bar average volume over the 20-bar average, the
// spike measure the state machine reads. Returns 1 when the base
// window is empty.
func VolumeRatio(bars []models.PriceBar) float64 {
	base := AvgVolume(bars, 20)
	if base <= 0 {
		return 1
	}
	return AvgVolume(bars, 5) / base
}

// LiquidityValue is the trailing 20-bar average of close x volume, the
// GTGD liquidity proxy.
func LiquidityValue(bars []models.PriceBar) float64 {
	start := len(bars) - 20
	if start < 0 {
		start = 0
	}
	if start == len(bars) {
		return 0
	}
	sum := 0.0
	for _, b := range bars[start:] {
		sum += b.Close * b.Volume
	}
	return sum / float64(len(bars)-start)
}
