package api

import (
	"encoding/json"
	"time"

	models "VNSniper/internal/domain/models"
	domrepo "VNSniper/internal/domain/repository"
	icache "VNSniper/internal/service/cache"
	"VNSniper/internal/service/metrics"
	"VNSniper/internal/service/ratelimit"
	"VNSniper/internal/usecase"
	xhttp "VNSniper/pkg/http"
	xlogger "VNSniper/pkg/logger"
	"VNSniper/pkg/util"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the screening engine over HTTP.
type AnalysisHandler struct {
	logger     *xlogger.Logger
	screener   *usecase.Screener
	strategies *usecase.StrategyUseCase
	ticks      *usecase.TickCollector
	store      domrepo.RunStore // optional

	cache icache.BytesCache
	rl    *ratelimit.Limiter
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	screener *usecase.Screener,
	strategies *usecase.StrategyUseCase,
	ticks *usecase.TickCollector,
	store domrepo.RunStore,
) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{
		logger:     logger,
		screener:   screener,
		strategies: strategies,
		ticks:      ticks,
		store:      store,
		rl:         ratelimit.New(),
	}
}

// SetCache injects a response cache for the read endpoints.
func (h *AnalysisHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analysis", h.Latest)
	g.POST("/analysis/run", h.Run)
	g.GET("/symbols/:symbol", h.Symbol)
	g.GET("/regime", h.Regime)
	g.GET("/regime/history", h.RegimeHistory)
	g.GET("/breadth", h.Breadth)
	g.GET("/strategies/:name", h.Strategy)
	g.GET("/prices", h.Prices)
	g.GET("/health", h.Health)
}

// Latest serves the most recent screening run, cached briefly so a
// dashboard poll storm never touches the usecase.
func (h *AnalysisHandler) Latest(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("analysis").Observe(time.Since(start).Seconds())
	}()

	const cacheKey = "api:analysis:latest"
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			var cached models.AnalysisResult
			if json.Unmarshal(b, &cached) == nil {
				return xhttp.SuccessResponse(c, &cached)
			}
		}
	}

	res, err := h.screener.LatestResult(c.Request().Context())
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("analysis").Inc()
		return xhttp.NotFoundResponse(c, err.Error())
	}

	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, 30*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

// Run triggers a screening run on demand. Heavily rate limited: a run
// fans out to the whole provider.
func (h *AnalysisHandler) Run(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("run").Observe(time.Since(start).Seconds())
	}()

	if !h.rl.Allow(c.RealIP()+":run", 2, 0.1) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	req := &models.RunAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.screener.RunFullAnalysis(c.Request().Context(), usecase.RunParams{TopN: req.TopN})
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("run").Inc()
		h.logger.Error("run usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Symbol(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("symbol").Observe(time.Since(start).Seconds())
	}()

	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":symbol", 10, 2) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	res, err := h.screener.ClassifySymbol(c.Request().Context(), req.Symbol)
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("symbol").Inc()
		h.logger.Error("symbol usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Regime serves only the regime section of the latest run.
func (h *AnalysisHandler) Regime(c echo.Context) error {
	res, err := h.screener.LatestResult(c.Request().Context())
	if err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, res.Regime)
}

// Breadth serves the per-exchange advance/decline tally of the latest run.
func (h *AnalysisHandler) Breadth(c echo.Context) error {
	res, err := h.screener.LatestResult(c.Request().Context())
	if err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	return xhttp.ListResponse(c, res.ExchangeBreadth, int64(len(res.ExchangeBreadth)))
}

// RegimeHistory serves stored regime assessments over a time range.
func (h *AnalysisHandler) RegimeHistory(c echo.Context) error {
	if h.store == nil {
		return xhttp.NotFoundResponse(c, "run history not configured")
	}

	to, _ := util.ParseTime(c.QueryParam("to"))
	if to.IsZero() {
		to = time.Now()
	}
	from, _ := util.ParseTime(c.QueryParam("from"))
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	limit := util.ParseIntDefault(c.QueryParam("limit"), 100)

	rows, err := h.store.RunHistory(c.Request().Context(), from, to, limit)
	if err != nil {
		h.logger.Error("regime history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AnalysisHandler) Strategy(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues("strategy").Observe(time.Since(start).Seconds())
	}()

	req := &models.StrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.strategies.Run(c.Request().Context(), req.Name)
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("strategy").Inc()
		h.logger.Error("strategy usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Prices serves the live last-price table from the tick stream.
func (h *AnalysisHandler) Prices(c echo.Context) error {
	if h.ticks == nil {
		return xhttp.NotFoundResponse(c, "price stream not configured")
	}
	return xhttp.SuccessResponse(c, h.ticks.Snapshot())
}

// Health reports store and stream health.
func (h *AnalysisHandler) Health(c echo.Context) error {
	out := map[string]any{"status": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			out["status"] = "degraded"
			out["store"] = err.Error()
		} else {
			out["store"] = "ok"
		}
	}
	if h.ticks != nil {
		out["stream_connected"] = h.ticks.IsConnected()
	}
	return xhttp.SuccessResponse(c, out)
}
