//go:build wireinject
// +build wireinject

package di

import (
	"LiqPull/pkg/config"
	"LiqPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Providers and caches
		ProvideSeriesSource,
		ProvidePriceSource,
		ProvideCacheService,
		ProvideResultCache,

		// Snapshot sinks
		ProvideKafkaPublisher,
		ProvideHistoryStore,
		ProvideHub,

		// Use cases
		ProvideAnalytics,
		ProvideEngine,
		ProvideRefresher,

		// Transport and application server
		ProvideRefreshLimiter,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
