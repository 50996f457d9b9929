//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CarbonDesk/internal/handler/api"
	"CarbonDesk/internal/usecase"
	"CarbonDesk/pkg/config"
	"CarbonDesk/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideRedisCache,
	ProvideLogger,
	ProvideMetrics,
	ProvideAnalyticsMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideCache,
)

var repositorySet = wire.NewSet(
	ProvideSampleStore,
	ProvideAuditStore,
	ProvideOrderStore,
	ProvideSamplePublisher,
	ProvideEventPublisher,
)

var usecaseSet = wire.NewSet(
	ProvideTimeSeriesUseCase,
	ProvideAnalyticsUseCase,
	usecase.NewOverviewUseCase,
	ProvideOrderEngine,
	wire.Bind(new(usecase.LiquiditySource), new(*usecase.OrderEngine)),
	usecase.NewRankingUseCase,
	usecase.NewAuditUseCase,
	usecase.NewExportUseCase,
	ProvideUsersUseCase,
)

var ingestSet = wire.NewSet(
	ProvideSampleProcessor,
	ProvideSampleCollector,
	ProvideKafkaConsumer,
	ProvideKafkaSamplesHandler,
)

var httpSet = wire.NewSet(
	wire.Struct(new(api.Services), "*"),
	ProvideOrderLimiter,
	ProvideHTTPHandler,
	ProvideHTTPServer,
)

// InitializeApp wires every dependency. The cleanup closes infrastructure clients.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(infraSet, repositorySet, usecaseSet, ingestSet, httpSet, ProvideApp)
	return nil, nil, nil
}
