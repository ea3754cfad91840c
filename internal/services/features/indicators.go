package features

import (
	"math"

	"VNSniper/internal/domain/models"
)

const tradingDaysPerYear = 250

// Enrich converts raw candles into PriceBars with every indicator the
// classifiers read, computed once at the provider boundary. Input must
// be ordered by time ascending; output preserves order and length.
// Indicator fields stay zero until enough history exists for them.
func Enrich(candles []models.Candle) []models.PriceBar {
	n := len(candles)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
	}

	sma20 := rollingMean(closes, 20)
	sma50 := rollingMean(closes, 50)
	sma200 := rollingMean(closes, 200)
	rsi := wilderRSI(closes, 14)
	macd, signal, hist := macdSeries(closes, 12, 26, 9)
	bbUp, bbLo := bollinger(closes, 20, 2.0)

	bars := make([]models.PriceBar, n)
	for i, c := range candles {
		b := models.PriceBar{
			Time:       c.Time,
			Open:       c.Open,
			High:       c.High,
			Low:        c.Low,
			Close:      c.Close,
			Volume:     c.Volume,
			SMA20:      sma20[i],
			SMA50:      sma50[i],
			SMA200:     sma200[i],
			RSI14:      rsi[i],
			MACD:       macd[i],
			MACDSignal: signal[i],
			MACDHist:   hist[i],
			BBUpper:    bbUp[i],
			BBLower:    bbLo[i],
		}
		if i > 0 && candles[i-1].Close > 0 {
			b.DailyReturn = (c.Close/candles[i-1].Close - 1) * 100
		}
		b.Volatility20 = annualizedVolatility(closes[:i+1], 20)
		bars[i] = b
	}
	return bars
}

// rollingMean returns the simple moving average series; entries before
// the window fills are zero.
func rollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 0 || len(xs) < window {
		return out
	}
	sum := 0.0
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// wilderRSI computes the smoothed RSI series. Values before period+1
// samples are zero.
func wilderRSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// macdSeries computes MACD line, signal line, and histogram using EMAs.
func macdSeries(closes []float64, fast, slow, signalPeriod int) (macd, signal, hist []float64) {
	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signal = emaSeries(macd, signalPeriod)
	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}

func emaSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 || period <= 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}

// bollinger returns upper/lower bands at window and mult standard
// deviations around the rolling mean.
func bollinger(closes []float64, window int, mult float64) (upper, lower []float64) {
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	mid := rollingMean(closes, window)
	for i := window - 1; i < len(closes); i++ {
		sd := stddev(closes[i-window+1 : i+1])
		upper[i] = mid[i] + mult*sd
		lower[i] = mid[i] - mult*sd
	}
	return upper, lower
}

// annualizedVolatility is the stddev of the trailing `window` daily
// returns, annualized and expressed in percent.
func annualizedVolatility(closes []float64, window int) float64 {
	if len(closes) < window+1 {
		return 0
	}
	rets := make([]float64, 0, window)
	for i := len(closes) - window; i < len(closes); i++ {
		if closes[i-1] > 0 {
			rets = append(rets, closes[i]/closes[i-1]-1)
		}
	}
	if len(rets) < 2 {
		return 0
	}
	return stddev(rets) * math.Sqrt(tradingDaysPerYear) * 100
}

func stddev(xs []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= n
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}
