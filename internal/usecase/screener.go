package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"VNSniper/internal/domain/models"
	drepo "VNSniper/internal/domain/repository"
	domsvc "VNSniper/internal/domain/service"
	xcache "VNSniper/pkg/cache"
	"VNSniper/pkg/logger"
)

// runLockKey guards a full analysis run across replicas sharing Redis.
const runLockKey = "analysis:run"

const runLockTTL = 10 * time.Minute

// ScreenerConfig holds the per-run knobs of the screening engine.
type ScreenerConfig struct {
	BenchmarkSymbol string // VNINDEX
	LargeCapSymbol  string // VN30
	MidCapSymbol    string // VNMID

	BarLimit     int     // daily bars fetched per symbol
	BatchSize    int     // symbols classified concurrently per batch
	DefaultTopN  int     // universe cap when the request does not set one
	MinLiquidity float64 // min avg traded value, VND
}

func (c *ScreenerConfig) normalize() {
	if c.BenchmarkSymbol == "" {
		c.BenchmarkSymbol = "VNINDEX"
	}
	if c.LargeCapSymbol == "" {
		c.LargeCapSymbol = "VN30"
	}
	if c.MidCapSymbol == "" {
		c.MidCapSymbol = "VNMID"
	}
	if c.BarLimit <= 0 {
		c.BarLimit = 260
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 12
	}
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = 50
	}
}

// Screener orchestrates one full screening run: universe selection,
// per-symbol classification and strength rating, the regime
// assessment, tier aggregation, persistence, and publication.
type Screener struct {
	cfg ScreenerConfig

	market     drepo.MarketData
	classifier domsvc.TechnicalClassifier
	rater      domsvc.StrengthRater
	assessor   domsvc.RegimeAssessor

	store     drepo.RunStore        // optional
	publisher drepo.SignalPublisher // optional
	lock      xcache.Service        // optional
	metrics   drepo.Metrics
	log       *logger.Logger

	mu     sync.RWMutex
	latest *models.AnalysisResult
}

func NewScreener(
	cfg ScreenerConfig,
	market drepo.MarketData,
	classifier domsvc.TechnicalClassifier,
	rater domsvc.StrengthRater,
	assessor domsvc.RegimeAssessor,
	store drepo.RunStore,
	publisher drepo.SignalPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Screener {
	cfg.normalize()
	return &Screener{
		cfg:        cfg,
		market:     market,
		classifier: classifier,
		rater:      rater,
		assessor:   assessor,
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
	}
}

// SetRunLock installs a shared lock so concurrent replicas never run
// the same analysis twice.
func (s *Screener) SetRunLock(c xcache.Service) { s.lock = c }

// symbolRef pairs a symbol with its exchange for basket grouping.
type symbolRef struct {
	Symbol   string
	Exchange string
}

// RunParams narrows one screening run.
type RunParams struct {
	TopN    int
	Symbols []string // explicit universe override, skips selection
}

// BuildUniverse unions the trading snapshot with the fundamentals feed
// and keeps the topN symbols by market-cap proxy. Symbols below the
// liquidity floor never enter the run.
func (s *Screener) BuildUniverse(ctx context.Context, topN int) ([]models.UniverseEntry, error) {
	if topN <= 0 {
		topN = s.cfg.DefaultTopN
	}
	snapshot, err := s.market.UniverseSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("universe snapshot: %w", err)
	}
	ratios, err := s.market.AllFundamentalRatios(ctx)
	if err != nil {
		s.log.Warn("fundamentals feed unavailable for universe", logger.Error(err))
		ratios = map[string]*models.FundamentalRatios{}
	}

	seen := make(map[string]bool, len(snapshot))
	entries := make([]models.UniverseEntry, 0, len(snapshot))
	for _, e := range snapshot {
		seen[e.Symbol] = true
		entries = append(entries, e)
	}
	for sym := range ratios {
		if !seen[sym] {
			entries = append(entries, models.UniverseEntry{Symbol: sym})
		}
	}

	if s.cfg.MinLiquidity > 0 {
		kept := entries[:0]
		for _, e := range entries {
			if e.LastPrice*e.Volume >= s.cfg.MinLiquidity {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	sort.Slice(entries, func(i, j int) bool {
		pi, pj := s.capProxy(entries[i], ratios), s.capProxy(entries[j], ratios)
		if pi != pj {
			return pi > pj
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries, nil
}

// capProxy estimates market capitalization: reported cap first, then
// price times shares outstanding, then traded value as a last resort.
func (s *Screener) capProxy(e models.UniverseEntry, ratios map[string]*models.FundamentalRatios) float64 {
	if r := ratios[e.Symbol]; r != nil {
		if r.MarketCap != nil && *r.MarketCap > 0 {
			return *r.MarketCap
		}
		if r.SharesOutstanding != nil && *r.SharesOutstanding > 0 && e.LastPrice > 0 {
			return e.LastPrice * *r.SharesOutstanding
		}
	}
	return e.LastPrice * e.Volume
}

// RunFullAnalysis executes one screening run. A benchmark fetch
// failure aborts the run; individual symbol failures only increment
// the skip count.
func (s *Screener) RunFullAnalysis(ctx context.Context, p RunParams) (*models.AnalysisResult, error) {
	started := time.Now()
	if p.TopN <= 0 {
		p.TopN = s.cfg.DefaultTopN
	}

	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, runLockKey, runLockTTL)
		if err != nil {
			s.log.Warn("run lock unavailable, continuing", logger.Error(err))
		} else if !ok {
			return nil, fmt.Errorf("analysis run already in progress")
		} else {
			defer func() {
				if err := s.lock.Unlock(context.Background(), runLockKey); err != nil {
					s.log.Warn("run lock release failed", logger.Error(err))
				}
			}()
		}
	}

	benchmark, err := s.market.BarHistory(ctx, s.cfg.BenchmarkSymbol, s.cfg.BarLimit)
	if err != nil {
		s.metrics.RecordError("benchmark")
		return nil, fmt.Errorf("benchmark history: %w", err)
	}

	entries, err := s.universeFor(ctx, p)
	if err != nil {
		return nil, err
	}

	ratios, err := s.market.AllFundamentalRatios(ctx)
	if err != nil {
		// Fundamentals degrade to the lenient default tier.
		s.log.Warn("bulk fundamentals unavailable", logger.Error(err))
		s.metrics.RecordError("fundamentals")
		ratios = map[string]*models.FundamentalRatios{}
	}

	symbols := make([]symbolRef, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, symbolRef{Symbol: e.Symbol, Exchange: e.Exchange})
	}
	histories, skipped := s.fetchHistories(ctx, symbols)

	res := &models.AnalysisResult{
		GeneratedAt: time.Now(),
		TopN:        p.TopN,
		Analyzed:    len(entries),
		Skipped:     skipped,
	}

	for _, sym := range symbols {
		bars, ok := histories[sym.Symbol]
		if !ok {
			continue
		}
		res.TechnicalProfiles = append(res.TechnicalProfiles, s.classifier.Classify(sym.Symbol, bars, ratios[sym.Symbol]))
		res.RSProfiles = append(res.RSProfiles, s.rater.Rate(sym.Symbol, bars, benchmark))
	}
	sortProfiles(res)

	regime := s.assessRegime(ctx, benchmark, symbols, histories)
	res.Regime = &regime

	if breadth, err := s.market.BreadthSnapshot(ctx); err != nil {
		// The tally is advisory; the basket layer already covers breadth.
		s.log.Warn("exchange breadth unavailable", logger.Error(err))
		s.metrics.RecordError("breadth")
	} else {
		res.ExchangeBreadth = breadth
	}

	res.Tiers = BuildTiers(res.TechnicalProfiles)
	res.Categories = BuildCategories(res.RSProfiles)

	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()

	s.persistAndPublish(ctx, res)

	s.metrics.RecordRunDuration(time.Since(started).Seconds())
	s.metrics.RecordSymbolsAnalyzed(len(res.TechnicalProfiles))
	s.metrics.RecordSymbolsSkipped(res.Skipped)
	s.metrics.RecordRegime(string(regime.State), regime.Score)
	s.log.Info("screening run complete",
		logger.Int("analyzed", len(res.TechnicalProfiles)),
		logger.Int("skipped", res.Skipped),
		logger.String("regime", string(regime.State)),
		logger.Duration("took", time.Since(started)))
	return res, nil
}

func (s *Screener) universeFor(ctx context.Context, p RunParams) ([]models.UniverseEntry, error) {
	if len(p.Symbols) > 0 {
		entries := make([]models.UniverseEntry, 0, len(p.Symbols))
		for _, sym := range p.Symbols {
			entries = append(entries, models.UniverseEntry{Symbol: sym})
		}
		return entries, nil
	}
	entries, err := s.BuildUniverse(ctx, p.TopN)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// fetchHistories loads bar histories in bounded batches. A failed
// symbol is logged, counted, and dropped; the run goes on.
func (s *Screener) fetchHistories(ctx context.Context, symbols []symbolRef) (map[string][]models.PriceBar, int) {
	histories := make(map[string][]models.PriceBar, len(symbols))
	var mu sync.Mutex
	skipped := 0

	for start := 0; start < len(symbols); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for _, sym := range symbols[start:end] {
			wg.Add(1)
			go func(sym symbolRef) {
				defer wg.Done()
				bars, err := s.market.BarHistory(ctx, sym.Symbol, s.cfg.BarLimit)
				mu.Lock()
				defer mu.Unlock()
				if err != nil || len(bars) == 0 {
					if err != nil {
						s.log.Warn("symbol history failed", logger.String("symbol", sym.Symbol), logger.Error(err))
						s.metrics.RecordError("history")
					}
					skipped++
					return
				}
				histories[sym.Symbol] = bars
			}(sym)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}
	return histories, skipped
}

// assessRegime assembles the layer inputs from already-fetched member
// histories; sub-index fetch failures degrade that layer to zero input
// rather than failing the run.
func (s *Screener) assessRegime(ctx context.Context, benchmark []models.PriceBar, symbols []symbolRef, histories map[string][]models.PriceBar) models.RegimeAssessment {
	largeCap, err := s.market.BarHistory(ctx, s.cfg.LargeCapSymbol, s.cfg.BarLimit)
	if err != nil {
		s.log.Warn("large-cap index unavailable", logger.Error(err))
		s.metrics.RecordError("index")
	}
	midCap, err := s.market.BarHistory(ctx, s.cfg.MidCapSymbol, s.cfg.BarLimit)
	if err != nil {
		s.log.Warn("mid-cap index unavailable", logger.Error(err))
		s.metrics.RecordError("index")
	}

	baskets := map[string]map[string][]models.PriceBar{
		"ALL": {},
	}
	for _, sym := range symbols {
		bars, ok := histories[sym.Symbol]
		if !ok {
			continue
		}
		baskets["ALL"][sym.Symbol] = bars
		if sym.Exchange == "" {
			continue
		}
		if _, ok := baskets[sym.Exchange]; !ok {
			baskets[sym.Exchange] = map[string][]models.PriceBar{}
		}
		baskets[sym.Exchange][sym.Symbol] = bars
	}

	return s.assessor.Assess(domsvc.RegimeInputs{
		Benchmark: benchmark,
		LargeCap:  largeCap,
		MidCap:    midCap,
		Baskets:   baskets,
	})
}

func (s *Screener) persistAndPublish(ctx context.Context, res *models.AnalysisResult) {
	if s.store != nil {
		if err := s.store.StoreRun(ctx, res); err != nil {
			s.log.Error("run persistence failed", logger.Error(err))
			s.metrics.RecordError("store")
		}
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRegime(ctx, res.Regime); err != nil {
		s.log.Error("regime publish failed", logger.Error(err))
		s.metrics.RecordError("publish")
	}
	if entries := res.Tiers["sniper_entry"]; len(entries) > 0 {
		if err := s.publisher.PublishEntries(ctx, "sniper_entry", entries); err != nil {
			s.log.Error("entries publish failed", logger.Error(err))
			s.metrics.RecordError("publish")
		}
	}
}

// ClassifySymbol runs the full per-symbol analysis for one symbol on
// demand.
func (s *Screener) ClassifySymbol(ctx context.Context, symbol string) (*models.SymbolAnalysis, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	benchmark, err := s.market.BarHistory(ctx, s.cfg.BenchmarkSymbol, s.cfg.BarLimit)
	if err != nil {
		return nil, fmt.Errorf("benchmark history: %w", err)
	}
	bars, err := s.market.BarHistory(ctx, symbol, s.cfg.BarLimit)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	ratios, err := s.market.FundamentalRatios(ctx, symbol)
	if err != nil {
		s.log.Warn("fundamentals unavailable", logger.String("symbol", symbol), logger.Error(err))
		ratios = nil
	}

	return &models.SymbolAnalysis{
		Symbol:           symbol,
		Technical:        s.classifier.Classify(symbol, bars, ratios),
		RelativeStrength: s.rater.Rate(symbol, bars, benchmark),
		GeneratedAt:      time.Now(),
	}, nil
}

// LatestResult returns the most recent run, first from memory, then
// from the run store.
func (s *Screener) LatestResult(ctx context.Context) (*models.AnalysisResult, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("no analysis run yet")
	}
	return s.store.LatestRun(ctx)
}

// sortProfiles orders both profile lists deterministically: rank or
// score descending, symbol ascending on ties.
func sortProfiles(res *models.AnalysisResult) {
	sort.SliceStable(res.TechnicalProfiles, func(i, j int) bool {
		a, b := res.TechnicalProfiles[i], res.TechnicalProfiles[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		return a.Symbol < b.Symbol
	})
	sort.SliceStable(res.RSProfiles, func(i, j int) bool {
		a, b := res.RSProfiles[i], res.RSProfiles[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Symbol < b.Symbol
	})
}
