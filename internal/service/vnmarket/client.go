package vnmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"VNSniper/internal/domain/models"
	drepo "VNSniper/internal/domain/repository"
	"VNSniper/internal/service/cache"
	"VNSniper/internal/services/features"
	pkghttp "VNSniper/pkg/http"
	"VNSniper/pkg/logger"
)

// Config holds the market-data provider settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	BarTTL   time.Duration // per-symbol candle cache
	MacroTTL time.Duration // universe, breadth, bulk fundamentals
}

// Client implements the MarketData boundary over the provider's REST
// API. Responses are parsed into typed rows, validated row by row, and
// enriched with indicators before the core ever sees them.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	cache   *cache.TTLCache
	shared  cache.BytesCache // optional L2, may be nil
	log     *logger.Logger
	metrics drepo.Metrics
}

func New(cfg Config, shared cache.BytesCache, log *logger.Logger, metrics drepo.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		cache:   cache.NewTTLCache(),
		shared:  shared,
		log:     log,
		metrics: metrics,
	}
}

var _ drepo.MarketData = (*Client)(nil)

type candleRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type ratioRow struct {
	Symbol            string   `json:"symbol"`
	PE                *float64 `json:"pe"`
	PB                *float64 `json:"pb"`
	ROE               *float64 `json:"roe"`
	ROA               *float64 `json:"roa"`
	EPS               *float64 `json:"eps"`
	EPSGrowth         *float64 `json:"epsGrowth"`
	RevenueGrowth     *float64 `json:"revenueGrowth"`
	GrossMargin       *float64 `json:"grossMargin"`
	NetMargin         *float64 `json:"netMargin"`
	CurrentRatio      *float64 `json:"currentRatio"`
	DebtToEquity      *float64 `json:"debtToEquity"`
	MarketCap         *float64 `json:"marketCap"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
}

type boardRow struct {
	Symbol    string  `json:"symbol"`
	Exchange  string  `json:"exchange"`
	LastPrice float64 `json:"lastPrice"`
	ChangePct float64 `json:"changePercent"`
	Volume    float64 `json:"totalVolume"`
}

type breadthRow struct {
	Exchange  string `json:"exchange"`
	Advancing int    `json:"advances"`
	Declining int    `json:"declines"`
	Unchanged int    `json:"unchanged"`
}

// BarHistory fetches and enriches the daily candle history of one
// symbol. Results are cached for BarTTL so intra-run duplicates (the
// benchmark, sub-indices) hit the provider once.
func (c *Client) BarHistory(ctx context.Context, symbol string, limit int) ([]models.PriceBar, error) {
	key := fmt.Sprintf("bars:%s:%d", symbol, limit)
	if v, ok := c.cache.Get(key); ok {
		c.metrics.RecordCacheHit("bars")
		return v.([]models.PriceBar), nil
	}
	c.metrics.RecordCacheMiss("bars")

	var rows []candleRow
	err := c.get(ctx, "/stocks/"+symbol+"/candles", map[string][]string{
		"resolution": {"D"},
		"limit":      {fmt.Sprint(limit)},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("candles %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse("2006-01-02", r.Date)
		if err != nil || r.Close <= 0 || r.High < r.Low {
			continue
		}
		candles = append(candles, models.Candle{
			Time:   ts,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })

	bars := features.Enrich(candles)
	c.cacheSet(key, bars, c.cfg.BarTTL)
	return bars, nil
}

// FundamentalRatios fetches one symbol's ratio snapshot. A symbol the
// provider has no fundamentals for yields nil without error.
func (c *Client) FundamentalRatios(ctx context.Context, symbol string) (*models.FundamentalRatios, error) {
	var row ratioRow
	if err := c.get(ctx, "/stocks/"+symbol+"/fundamentals", nil, &row); err != nil {
		return nil, fmt.Errorf("fundamentals %s: %w", symbol, err)
	}
	row.Symbol = symbol
	return row.toModel(), nil
}

// AllFundamentalRatios fetches the whole board's ratio snapshots in one
// call, cached for MacroTTL.
func (c *Client) AllFundamentalRatios(ctx context.Context) (map[string]*models.FundamentalRatios, error) {
	if v, ok := c.cache.Get("fundamentals:all"); ok {
		c.metrics.RecordCacheHit("fundamentals")
		return v.(map[string]*models.FundamentalRatios), nil
	}
	c.metrics.RecordCacheMiss("fundamentals")

	var rows []ratioRow
	if err := c.get(ctx, "/market/fundamentals", nil, &rows); err != nil {
		return nil, fmt.Errorf("bulk fundamentals: %w", err)
	}

	out := make(map[string]*models.FundamentalRatios, len(rows))
	for _, r := range rows {
		if r.Symbol == "" {
			continue
		}
		out[r.Symbol] = r.toModel()
	}
	c.cacheSet("fundamentals:all", out, c.cfg.MacroTTL)
	c.log.Debug("bulk fundamentals refreshed", logger.Int("symbols", len(out)))
	return out, nil
}

// UniverseSnapshot fetches the current price board across exchanges,
// cached for MacroTTL.
func (c *Client) UniverseSnapshot(ctx context.Context) ([]models.UniverseEntry, error) {
	if v, ok := c.cache.Get("universe"); ok {
		c.metrics.RecordCacheHit("universe")
		return v.([]models.UniverseEntry), nil
	}
	if out, ok := c.sharedGet("universe", &[]models.UniverseEntry{}); ok {
		entries := *out.(*[]models.UniverseEntry)
		c.cacheSet("universe", entries, c.cfg.MacroTTL)
		c.metrics.RecordCacheHit("universe")
		return entries, nil
	}
	c.metrics.RecordCacheMiss("universe")

	var rows []boardRow
	if err := c.get(ctx, "/market/price-board", nil, &rows); err != nil {
		return nil, fmt.Errorf("price board: %w", err)
	}

	out := make([]models.UniverseEntry, 0, len(rows))
	for _, r := range rows {
		if r.Symbol == "" || r.LastPrice <= 0 {
			continue
		}
		out = append(out, models.UniverseEntry{
			Symbol:    r.Symbol,
			Exchange:  r.Exchange,
			LastPrice: r.LastPrice,
			ChangePct: r.ChangePct,
			Volume:    r.Volume,
		})
	}
	c.cacheSet("universe", out, c.cfg.MacroTTL)
	c.sharedSet("universe", out)
	return out, nil
}

// BreadthSnapshot fetches the per-exchange advance/decline tally,
// cached for MacroTTL.
func (c *Client) BreadthSnapshot(ctx context.Context) ([]models.ExchangeBreadth, error) {
	if v, ok := c.cache.Get("breadth"); ok {
		c.metrics.RecordCacheHit("breadth")
		return v.([]models.ExchangeBreadth), nil
	}
	c.metrics.RecordCacheMiss("breadth")

	var rows []breadthRow
	if err := c.get(ctx, "/market/breadth", nil, &rows); err != nil {
		return nil, fmt.Errorf("breadth: %w", err)
	}

	out := make([]models.ExchangeBreadth, 0, len(rows))
	for _, r := range rows {
		if r.Exchange == "" {
			continue
		}
		out = append(out, models.ExchangeBreadth(r))
	}
	c.cacheSet("breadth", out, c.cfg.MacroTTL)
	return out, nil
}

// cacheSet stores only when the TTL is positive. An unset TTL means
// caching for that resource is disabled; storing with no expiry would
// pin the first response for the life of the process.
func (c *Client) cacheSet(key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.cache.Set(key, v, ttl)
}

// sharedGet tries the optional L2 cache. Decode failures read as a
// miss; stale shared entries expire server side.
func (c *Client) sharedGet(key string, dest any) (any, bool) {
	if c.shared == nil {
		return nil, false
	}
	b, ok, err := c.shared.GetBytes("vnmarket:" + key)
	if err != nil || !ok {
		return nil, false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return nil, false
	}
	return dest, true
}

func (c *Client) sharedSet(key string, v any) {
	if c.shared == nil || c.cfg.MacroTTL <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.shared.SetBytes("vnmarket:"+key, b, c.cfg.MacroTTL); err != nil {
		c.log.Warn("shared cache write failed", logger.String("key", key), logger.Error(err))
	}
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest any) error {
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["X-Api-Key"] = c.cfg.APIKey
	}
	return c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.cfg.BaseURL + path,
		Headers:     headers,
		QueryParams: query,
	}, dest)
}

func (r ratioRow) toModel() *models.FundamentalRatios {
	return &models.FundamentalRatios{
		Symbol:            r.Symbol,
		PE:                r.PE,
		PB:                r.PB,
		ROE:               r.ROE,
		ROA:               r.ROA,
		EPS:               r.EPS,
		EPSGrowth:         r.EPSGrowth,
		RevenueGrowth:     r.RevenueGrowth,
		GrossMargin:       r.GrossMargin,
		NetMargin:         r.NetMargin,
		CurrentRatio:      r.CurrentRatio,
		DebtToEquity:      r.DebtToEquity,
		MarketCap:         r.MarketCap,
		SharesOutstanding: r.SharesOutstanding,
	}
}
