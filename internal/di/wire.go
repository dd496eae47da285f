//go:build wireinject
// +build wireinject

package di

import (
	"FxCloud/internal/domain/repository"
	internalrepo "FxCloud/internal/repository"
	"FxCloud/pkg/config"
	"FxCloud/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideBytesCache,

		// Repositories
		ProvideBarStore,
		wire.Bind(new(repository.QuoteSource), new(*internalrepo.CHBarStore)),
		wire.Bind(new(repository.BarSink), new(*internalrepo.CHBarStore)),
		ProvideBarPublisher,
		ProvideSignalPublisher,

		// Use cases
		ProvideCalculator,
		ProvideQuotesUseCase,
		ProvideIchimokuUseCase,
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,

		// HTTP
		ProvideRateLimiter,
		ProvideQuotesHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
