package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	drepo "VNSniper/internal/domain/repository"
	domsvc "VNSniper/internal/domain/service"
	"VNSniper/internal/handler/api"
	internalrepo "VNSniper/internal/repository"
	icache "VNSniper/internal/service/cache"
	"VNSniper/internal/service/vnmarket"
	"VNSniper/internal/services/regime"
	"VNSniper/internal/services/strength"
	"VNSniper/internal/services/technical"
	"VNSniper/internal/usecase"
	xcache "VNSniper/pkg/cache"
	pkgch "VNSniper/pkg/clickhouse"
	"VNSniper/pkg/config"
	pkgkafka "VNSniper/pkg/kafka"
	"VNSniper/pkg/logger"
	"VNSniper/pkg/metrics"
	"VNSniper/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideResponseCache picks Redis when enabled, in-process TTL otherwise.
func ProvideResponseCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideRunLock creates the layered cache used as a cross-replica run
// lock. Nil when Redis is disabled; single instances need no lock.
func ProvideRunLock(cfg *config.Config) (xcache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := xcache.NewRedisCache(
		xcache.WithRedisHost(host),
		xcache.WithRedisPort(port),
		xcache.WithRedisPassword(cfg.Redis.Password),
		xcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return xcache.NewLayeredCache(rc), nil
}

// ProvideMarketData creates the market data client.
func ProvideMarketData(cfg *config.Config, cache icache.BytesCache, l *logger.Logger, m drepo.Metrics) drepo.MarketData {
	return vnmarket.New(vnmarket.Config{
		BaseURL:  cfg.Market.BaseURL,
		APIKey:   cfg.Market.APIKey,
		Timeout:  cfg.Market.Timeout,
		BarTTL:   cfg.Market.BarTTL,
		MacroTTL: cfg.Market.MacroTTL,
	}, cache, l, m)
}

// ProvidePriceStream creates the WebSocket price stream.
func ProvidePriceStream(cfg *config.Config, l *logger.Logger) drepo.PriceStream {
	return vnmarket.NewStream(vnmarket.StreamConfig{
		URL:            cfg.Market.StreamURL,
		APIKey:         cfg.Market.APIKey,
		ReconnectDelay: cfg.Market.ReconnectDelay,
		PingInterval:   cfg.Market.PingInterval,
	}, l)
}

// ProvideClassifier creates the technical classifier.
func ProvideClassifier() domsvc.TechnicalClassifier {
	return technical.New()
}

// ProvideStrengthRater creates the relative strength engine.
func ProvideStrengthRater() domsvc.StrengthRater {
	return strength.New()
}

// ProvideRegimeAssessor creates the market regime assessor.
func ProvideRegimeAssessor(classifier domsvc.TechnicalClassifier) domsvc.RegimeAssessor {
	return regime.New(classifier)
}

// ProvideRunStore creates the ClickHouse run store when ClickHouse is
// enabled, nil otherwise.
func ProvideRunStore(cfg *config.Config, l *logger.Logger) (drepo.RunStore, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHRunStore(client)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return store, nil
}

// ProvideSignalPublisher creates the Kafka publisher when Kafka is
// enabled, nil otherwise.
func ProvideSignalPublisher(cfg *config.Config) (drepo.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.RegimeTopic, cfg.Kafka.EntriesTopic), nil
}

// ProvideScreener assembles the screening engine.
func ProvideScreener(
	cfg *config.Config,
	market drepo.MarketData,
	classifier domsvc.TechnicalClassifier,
	rater domsvc.StrengthRater,
	assessor domsvc.RegimeAssessor,
	store drepo.RunStore,
	publisher drepo.SignalPublisher,
	lock xcache.Service,
	m drepo.Metrics,
	l *logger.Logger,
) *usecase.Screener {
	s := usecase.NewScreener(usecase.ScreenerConfig{
		BenchmarkSymbol: cfg.Analysis.BenchmarkSymbol,
		LargeCapSymbol:  cfg.Analysis.LargeCapSymbol,
		MidCapSymbol:    cfg.Analysis.MidCapSymbol,
		BarLimit:        cfg.Analysis.BarLimit,
		BatchSize:       cfg.Analysis.BatchSize,
		DefaultTopN:     cfg.Analysis.TopN,
		MinLiquidity:    cfg.Analysis.MinLiquidity,
	}, market, classifier, rater, assessor, store, publisher, m, l)
	if lock != nil {
		s.SetRunLock(lock)
	}
	return s
}

// ProvideScheduler creates the exchange-time run scheduler.
func ProvideScheduler(cfg *config.Config, screener *usecase.Screener, l *logger.Logger) (*usecase.Scheduler, error) {
	return usecase.NewScheduler(usecase.SchedulerConfig{
		Timezone: cfg.Analysis.Timezone,
		RunAt:    cfg.Analysis.Schedule,
	}, screener, l)
}

// ProvideTickCollector creates the live price collector.
func ProvideTickCollector(stream drepo.PriceStream, m drepo.Metrics) *usecase.TickCollector {
	return usecase.NewTickCollector(stream, m)
}

// ProvideStrategies creates the strategy preset use case.
func ProvideStrategies(screener *usecase.Screener) *usecase.StrategyUseCase {
	return usecase.NewStrategyUseCase(screener)
}

// ProvideAnalysisHandler creates the HTTP handler with its response cache.
func ProvideAnalysisHandler(
	l *logger.Logger,
	screener *usecase.Screener,
	strategies *usecase.StrategyUseCase,
	ticks *usecase.TickCollector,
	store drepo.RunStore,
	cache icache.BytesCache,
) *api.AnalysisHandler {
	h := api.NewAnalysisHandler(l, screener, strategies, ticks, store)
	h.SetCache(cache)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	handler *api.AnalysisHandler,
	screener *usecase.Screener,
	scheduler *usecase.Scheduler,
	ticks *usecase.TickCollector,
	store drepo.RunStore,
	publisher drepo.SignalPublisher,
) *server.App {
	return server.New(cfg, l, handler, screener, scheduler, ticks, store, publisher)
}
