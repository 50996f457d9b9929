package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"CarbonDesk/internal/domain/repository"
	"CarbonDesk/internal/handler/api"
	mid "CarbonDesk/internal/middleware"
	internalrepo "CarbonDesk/internal/repository"
	"CarbonDesk/internal/service/feed"
	svcmetrics "CarbonDesk/internal/service/metrics"
	"CarbonDesk/internal/service/ratelimit"
	"CarbonDesk/internal/services/analytics"
	"CarbonDesk/internal/services/users"
	"CarbonDesk/internal/usecase"
	"CarbonDesk/pkg/cache"
	pkgch "CarbonDesk/pkg/clickhouse"
	"CarbonDesk/pkg/config"
	xhttp "CarbonDesk/pkg/http"
	pkgkafka "CarbonDesk/pkg/kafka"
	applogger "CarbonDesk/pkg/logger"
	"CarbonDesk/pkg/metrics"
	"CarbonDesk/pkg/queue"
	"CarbonDesk/pkg/server"
)

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideLogger builds the app logger. With the collector enabled, repeated
// warnings and errors are aggregated onto a capped Redis list.
func ProvideLogger(cfg *config.Config, rc *cache.RedisCache) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collector.Enabled && rc != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.Threshold,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      queue.NewRedisPublisher(rc.Client(), queue.WithKeyPrefix(cfg.Redis.Prefix+":logs"), queue.WithMaxLen(5000)),
		})
	}
	return l, l.RemoveCollector, nil
}

func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

func ProvideAnalyticsMetrics() *svcmetrics.Analytics {
	return svcmetrics.NewAnalytics(nil)
}

// ProvideClickHouseClient connects and applies the schema when the store backend is clickhouse.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if cfg.Store.Backend != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns, time.Hour),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	client.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}, nil
}

// ProvideKafkaProducer is nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideCache layers a local LRU over Redis when Redis is up, else uses memory only.
// A nil Service disables analytics caching. Redis itself is closed by ProvideRedisCache.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) (cache.Service, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}
	if rc != nil {
		return cache.NewLayeredCache(rc, cfg.Cache.L1Size, cfg.Cache.L1TTL), func() {}
	}
	mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.L1Size), cache.WithMemoryCleanup(time.Minute))
	return mc, func() { _ = mc.Close() }
}

func ProvideSampleStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.SampleStore {
	if ch == nil {
		return internalrepo.NewMemorySampleStore()
	}
	s := internalrepo.NewCHSampleStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

func ProvideAuditStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.AuditStore {
	if ch == nil {
		return internalrepo.NewMemoryAuditStore()
	}
	s := internalrepo.NewCHAuditStore(ch, cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

func ProvideOrderStore(cfg *config.Config, ch *pkgch.Client) repository.OrderStore {
	if ch == nil {
		return internalrepo.NewMemoryOrderStore()
	}
	return internalrepo.NewCHOrderStore(ch, cfg.ClickHouse.Database)
}

// ProvideSamplePublisher is nil without a producer.
// The producer's lifetime belongs to ProvideKafkaProducer.
func ProvideSamplePublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.SamplePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSamplePublisher(producer, cfg.Kafka.SamplesTopic)
}

func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.AuditTopic, cfg.Kafka.FillTopic)
}

func ProvideSampleProcessor(cfg *config.Config, pub repository.SamplePublisher, store repository.SampleStore, m repository.Metrics) (*usecase.SampleProcessor, error) {
	backend := cfg.Ingest.Backend
	if backend == usecase.BackendKafka && pub == nil {
		return nil, errors.New("ingest backend kafka needs a kafka producer")
	}
	return usecase.NewSampleProcessor(pub, store, m, backend), nil
}

// ProvideSampleCollector is nil when the live feed is disabled.
func ProvideSampleCollector(cfg *config.Config, proc *usecase.SampleProcessor, m repository.Metrics, l *applogger.Logger) *usecase.SampleCollector {
	if !cfg.Feed.Enabled {
		return nil
	}
	stream := feed.New(cfg.Feed.URL, cfg.Feed.Assets,
		feed.WithToken(cfg.Feed.Token),
		feed.WithReconnectDelay(cfg.Feed.ReconnectDelay),
		feed.WithPingInterval(cfg.Feed.PingInterval),
		feed.WithBufferSize(cfg.Ingest.BufferSize),
	)
	stream.SetLogger(l.With(applogger.String("component", "feed")))

	pipe := mid.NewSamplePipeline(proc, m,
		mid.WithMaxRPS(cfg.Ingest.MaxRPS),
		mid.WithBufferSize(cfg.Ingest.BufferSize),
	)
	c := usecase.NewSampleCollector(stream, pipe, m)
	c.SetLogger(l.With(applogger.String("component", "collector")))
	return c
}

// ProvideKafkaConsumer is nil unless samples arrive through Kafka.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Ingest.Backend != usecase.BackendKafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l.With(applogger.String("component", "kafka_consumer")))
	consumer.SetHook(pkgkafka.HookFuncs{
		After: func(_ context.Context, topic string, _ kafka.Message, err error) {
			if err != nil {
				m.RecordError("consume:" + topic)
			}
		},
	})
	return consumer, nil
}

func ProvideKafkaSamplesHandler(cfg *config.Config, store repository.SampleStore, m repository.Metrics) *usecase.KafkaSamplesHandler {
	return usecase.NewKafkaSamplesHandler(cfg.Kafka.SamplesTopic, store, m)
}

func ProvideTimeSeriesUseCase(store repository.SampleStore, audit repository.AuditStore, m repository.Metrics, l *applogger.Logger) *usecase.TimeSeriesUseCase {
	uc := usecase.NewTimeSeriesUseCase(store, m)
	uc.SetAuditStore(audit)
	uc.SetLogger(l)
	return uc
}

func ProvideAnalyticsUseCase(cfg *config.Config, store repository.SampleStore, c cache.Service, am *svcmetrics.Analytics, l *applogger.Logger) *usecase.AnalyticsUseCase {
	uc := usecase.NewAnalyticsUseCase(store,
		analytics.NewMovingAverageDecomposer(),
		analytics.NewLinearForecaster(),
		usecase.WithAnalyticsCache(c, cfg.Cache.TTL),
		usecase.WithAnalyticsMetrics(am),
	)
	uc.SetLogger(l)
	return uc
}

func ProvideOrderEngine(
	store repository.SampleStore,
	orders repository.OrderStore,
	audit repository.AuditStore,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.OrderEngine {
	e := usecase.NewOrderEngine(store, orders, audit, events, m)
	e.SetLogger(l.With(applogger.String("component", "orders")))
	return e
}

// ProvideUsersUseCase is nil when no user directory is configured.
func ProvideUsersUseCase(cfg *config.Config, audit repository.AuditStore, l *applogger.Logger) *usecase.UsersUseCase {
	if cfg.Users.BaseURL == "" {
		return nil
	}
	uc := usecase.NewUsersUseCase(users.NewHTTPDirectory(cfg.Users.BaseURL, cfg.Users.Token, cfg.Users.Timeout), audit)
	uc.SetLogger(l)
	return uc
}

func ProvideOrderLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Orders.RatePerSecond, cfg.Orders.Burst)
}

func ProvideHTTPHandler(l *applogger.Logger, svc api.Services, limiter *ratelimit.Limiter) xhttp.Handler {
	return api.NewHandler(l.With(applogger.String("component", "api")), svc, limiter)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h, l,
		xhttp.WithAddr(cfg.Server.Host, cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(cfg.Metrics.Enabled),
	)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	collector *usecase.SampleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSamplesHandler,
) *server.App {
	if consumer == nil {
		return server.New(cfg, l, srv, collector, nil, nil)
	}
	return server.New(cfg, l, srv, collector, consumer, kh)
}
