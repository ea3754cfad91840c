//go:build wireinject
// +build wireinject

package di

import (
	"VNSniper/pkg/config"
	"VNSniper/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Caches
		ProvideResponseCache,
		ProvideRunLock,

		// Market data
		ProvideMarketData,
		ProvidePriceStream,

		// Analysis engines
		ProvideClassifier,
		ProvideStrengthRater,
		ProvideRegimeAssessor,

		// Persistence and publication
		ProvideRunStore,
		ProvideSignalPublisher,

		// Use cases
		ProvideScreener,
		ProvideScheduler,
		ProvideTickCollector,
		ProvideStrategies,

		// HTTP
		ProvideAnalysisHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
