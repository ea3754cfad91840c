package repository

import (
	"context"
	"time"

	"VNSniper/internal/domain/models"
)

// MarketData is the external data-provider boundary. Implementations
// return validated, typed records; the core never sees raw rows.
// Bar histories are ordered by time ascending, benchmark and sub-index
// symbols use the same shape as regular symbols.
type MarketData interface {
	BarHistory(ctx context.Context, symbol string, limit int) ([]models.PriceBar, error)
	FundamentalRatios(ctx context.Context, symbol string) (*models.FundamentalRatios, error)
	AllFundamentalRatios(ctx context.Context) (map[string]*models.FundamentalRatios, error)
	UniverseSnapshot(ctx context.Context) ([]models.UniverseEntry, error)
	BreadthSnapshot(ctx context.Context) ([]models.ExchangeBreadth, error)
}

// PriceStream delivers live price-board ticks between screening runs.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// RunStore persists screening runs and serves the latest one back.
type RunStore interface {
	Init(ctx context.Context) error
	StoreRun(ctx context.Context, res *models.AnalysisResult) error
	LatestRun(ctx context.Context) (*models.AnalysisResult, error)
	RunHistory(ctx context.Context, from, to time.Time, limit int) ([]models.RegimeAssessment, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher pushes regime transitions and top-tier entries to
// downstream consumers.
type SignalPublisher interface {
	PublishRegime(ctx context.Context, r *models.RegimeAssessment) error
	PublishEntries(ctx context.Context, tier string, profiles []models.TechnicalProfile) error
	Close() error
}

// Metrics records operational metrics for the screening engine.
type Metrics interface {
	RecordRunDuration(seconds float64)
	RecordSymbolsAnalyzed(n int)
	RecordSymbolsSkipped(n int)
	RecordRegime(state string, score float64)
	RecordCacheHit(resource string)
	RecordCacheMiss(resource string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
