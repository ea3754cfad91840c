package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "VNSniper/internal/domain/repository"
	"VNSniper/internal/handler/api"
	"VNSniper/internal/usecase"
	"VNSniper/pkg/config"
	xhttp "VNSniper/pkg/http"
	"VNSniper/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	log *logger.Logger

	handler   *api.AnalysisHandler
	screener  *usecase.Screener
	scheduler *usecase.Scheduler
	ticks     *usecase.TickCollector

	store     drepo.RunStore        // nil when ClickHouse is disabled
	publisher drepo.SignalPublisher // nil when Kafka is disabled

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	handler *api.AnalysisHandler,
	screener *usecase.Screener,
	scheduler *usecase.Scheduler,
	ticks *usecase.TickCollector,
	store drepo.RunStore,
	publisher drepo.SignalPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		screener:  screener,
		scheduler: scheduler,
		ticks:     ticks,
		store:     store,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.scheduler.Start(ctx)
	a.log.Info("scheduler started",
		logger.Strings("run_at", a.cfg.Analysis.Schedule),
		logger.String("timezone", a.cfg.Analysis.Timezone))

	if a.cfg.Market.StreamURL != "" {
		go a.startTicks(ctx)
	}

	// Warm run so the API serves data before the first scheduled slot.
	go func() {
		if _, err := a.screener.RunFullAnalysis(ctx, usecase.RunParams{}); err != nil {
			a.log.Warn("startup analysis failed", logger.Error(err))
		}
	}()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}
	a.log.Info("http server started", logger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startTicks subscribes the live price stream to the current liquid
// universe plus the benchmark index.
func (a *App) startTicks(ctx context.Context) {
	entries, err := a.screener.BuildUniverse(ctx, 0)
	if err != nil {
		a.log.Warn("tick universe unavailable, stream not started", logger.Error(err))
		return
	}

	symbols := make([]string, 0, len(entries)+1)
	if a.cfg.Analysis.BenchmarkSymbol != "" {
		symbols = append(symbols, a.cfg.Analysis.BenchmarkSymbol)
	}
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}

	if err := a.ticks.Start(ctx, symbols); err != nil {
		a.log.Warn("price stream start failed", logger.Error(err))
		return
	}
	a.log.Info("price stream started", logger.Int("symbols", len(symbols)))
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.scheduler.Stop()

	if a.ticks.IsConnected() {
		if err := a.ticks.Stop(); err != nil {
			a.log.Warn("price stream stop error", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("run store close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
