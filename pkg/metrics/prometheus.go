package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runDuration     prometheus.Histogram
	symbolsAnalyzed prometheus.Gauge
	symbolsSkipped  prometheus.Gauge
	regimeScore     prometheus.Gauge
	regimeState     *prometheus.GaugeVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vnsniper_run_duration_seconds",
				Help:    "Duration of full screening runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		symbolsAnalyzed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vnsniper_symbols_analyzed",
				Help: "Symbols analyzed in the last screening run",
			},
		),
		symbolsSkipped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vnsniper_symbols_skipped",
				Help: "Symbols skipped in the last screening run",
			},
		),
		regimeScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vnsniper_regime_score",
				Help: "Combined regime score of the last run, -100..100",
			},
		),
		regimeState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vnsniper_regime_state",
				Help: "Current regime state, 1 for the active state",
			},
			[]string{"state"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vnsniper_cache_hits_total",
				Help: "Cache hits by resource",
			},
			[]string{"resource"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vnsniper_cache_misses_total",
				Help: "Cache misses by resource",
			},
			[]string{"resource"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vnsniper_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vnsniper_last_price",
				Help: "Last streamed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vnsniper_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRunDuration records a full screening run's wall time.
func (r *Recorder) RecordRunDuration(seconds float64) {
	r.runDuration.Observe(seconds)
}

// RecordSymbolsAnalyzed sets the analyzed count of the last run.
func (r *Recorder) RecordSymbolsAnalyzed(n int) {
	r.symbolsAnalyzed.Set(float64(n))
}

// RecordSymbolsSkipped sets the skipped count of the last run.
func (r *Recorder) RecordSymbolsSkipped(n int) {
	r.symbolsSkipped.Set(float64(n))
}

// RecordRegime flags the active regime state and its combined score.
func (r *Recorder) RecordRegime(state string, score float64) {
	r.regimeState.Reset()
	r.regimeState.WithLabelValues(state).Set(1)
	r.regimeScore.Set(score)
}

// RecordCacheHit records a cache hit for a resource.
func (r *Recorder) RecordCacheHit(resource string) {
	r.cacheHits.WithLabelValues(resource).Inc()
}

// RecordCacheMiss records a cache miss for a resource.
func (r *Recorder) RecordCacheMiss(resource string) {
	r.cacheMisses.WithLabelValues(resource).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
