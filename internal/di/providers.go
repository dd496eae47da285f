package di

import (
	"context"
	"fmt"
	"time"

	"FxCloud/internal/domain/repository"
	"FxCloud/internal/handler/api"
	mid "FxCloud/internal/middleware"
	internalrepo "FxCloud/internal/repository"
	"FxCloud/internal/service/bridge"
	icache "FxCloud/internal/service/cache"
	"FxCloud/internal/service/ratelimit"
	"FxCloud/internal/services/ichimoku"
	"FxCloud/internal/usecase"
	pkgch "FxCloud/pkg/clickhouse"
	"FxCloud/pkg/config"
	xhttp "FxCloud/pkg/http"
	pkgkafka "FxCloud/pkg/kafka"
	applogger "FxCloud/pkg/logger"
	"FxCloud/pkg/metrics"
	"FxCloud/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and the bar table.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	chCfg := pkgch.DefaultClientConfig()
	chCfg.Host = cfg.ClickHouse.Host
	chCfg.Port = cfg.ClickHouse.Port
	chCfg.Database = cfg.ClickHouse.Database
	chCfg.User = cfg.ClickHouse.User
	chCfg.Password = cfg.ClickHouse.Password
	chCfg.UseHTTP = cfg.ClickHouse.UseHTTP
	chCfg.AsyncInsert = cfg.ClickHouse.AsyncInsert
	chCfg.WaitForAsync = cfg.ClickHouse.WaitForAsync
	chCfg.DialTimeout = cfg.ClickHouse.DialTimeout
	chCfg.ReadTimeout = cfg.ClickHouse.ReadTimeout
	chCfg.MaxExecTime = cfg.ClickHouse.MaxExecutionTime

	client, err := pkgch.NewClient(chCfg)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, pkgch.BarSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHBarStore {
	store := internalrepo.NewCHBarStore(ch, cfg.ClickHouse.Database)
	store.SetLogger(l.With(applogger.String("component", "bar_store")))
	return store
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	pcfg := pkgkafka.DefaultProducerConfig()
	pcfg.Brokers = cfg.Kafka.Brokers
	pcfg.Compression = cfg.Kafka.Compression
	pcfg.RequiredAcks = cfg.Kafka.RequiredAcks
	pcfg.MaxAttempts = cfg.Kafka.Producer.MaxAttempts
	pcfg.Linger = cfg.Kafka.Producer.Linger
	pcfg.BatchSize = cfg.Kafka.Producer.BatchSize
	pcfg.BatchBytes = cfg.Kafka.Producer.BatchBytes
	pcfg.WriteTimeout = cfg.Kafka.Producer.WriteTimeout
	pcfg.ReadTimeout = cfg.Kafka.Producer.ReadTimeout
	pcfg.Async = cfg.Kafka.Producer.Async

	producer, err := pkgkafka.NewProducer(pcfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideBarPublisher relays bars to Kafka; nil without a producer.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.BarPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.BarsTopic)
}

// ProvideSignalPublisher emits verdicts to Kafka; nil without a producer.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideBytesCache returns a Redis cache when configured and reachable,
// otherwise an in-process TTL cache.
func ProvideBytesCache(cfg *config.Config, l *applogger.Logger) icache.BytesCache {
	if !cfg.Cache.Redis.Enabled {
		return icache.NewTTLCache()
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   "fxcloud:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-memory cache",
			applogger.String("addr", cfg.Cache.Redis.Addr), applogger.Error(err))
		_ = rc.Close()
		return icache.NewTTLCache()
	}
	return rc
}

// ProvideCalculator creates the Ichimoku engine from config.
func ProvideCalculator(cfg *config.Config) (*ichimoku.Calculator, error) {
	return ichimoku.NewCalculator(ichimoku.Params{
		TenkanPeriod:  cfg.Ichimoku.TenkanPeriod,
		KijunPeriod:   cfg.Ichimoku.KijunPeriod,
		SenkouBPeriod: cfg.Ichimoku.SenkouBPeriod,
		Displacement:  cfg.Ichimoku.Displacement,
	})
}

func ProvideQuotesUseCase(source repository.QuoteSource, cache icache.BytesCache, cfg *config.Config, l *applogger.Logger) *usecase.QuotesUseCase {
	return usecase.NewQuotesUseCase(source, cache, cfg.Cache.SymbolsTTL, l)
}

func ProvideIchimokuUseCase(
	quotes *usecase.QuotesUseCase,
	calc *ichimoku.Calculator,
	m repository.Metrics,
	pub repository.SignalPublisher,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.IchimokuUseCase {
	opts := []usecase.IchimokuOption{
		usecase.WithCountBounds(cfg.Ichimoku.MinCount, cfg.Ichimoku.DefaultCount),
		usecase.WithIchimokuLogger(l),
	}
	if pub != nil {
		opts = append(opts, usecase.WithSignalPublisher(pub))
	}
	return usecase.NewIchimokuUseCase(quotes, calc, m, opts...)
}

// ProvideRateLimiter limits /ichimoku per client address.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Ichimoku.RateLimit.RPS, cfg.Ichimoku.RateLimit.Burst)
}

func ProvideQuotesHandler(l *applogger.Logger, quotes *usecase.QuotesUseCase, ich *usecase.IchimokuUseCase, rl *ratelimit.Limiter) *api.QuotesEchoHandler {
	return api.NewQuotesEchoHandler(l, quotes, ich, rl)
}

// ProvideHTTPServer creates the Echo server with every handler registered.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, quotes *api.QuotesEchoHandler) *xhttp.Server {
	return xhttp.NewServer([]xhttp.Handler{quotes},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(len(cfg.Server.CORSOrigins) > 0, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithSlowRequestThreshold(cfg.Server.SlowRequest),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	)
}

// ProvideBarProcessor creates the ingestion router.
func ProvideBarProcessor(pub repository.BarPublisher, sink repository.BarSink, m repository.Metrics, cfg *config.Config) *usecase.BarProcessor {
	return usecase.NewBarProcessor(pub, sink, m, cfg.Backend.Type)
}

// ProvideBarCollector wires bridge, pipeline and processor; nil when
// ingestion is disabled.
func ProvideBarCollector(cfg *config.Config, proc *usecase.BarProcessor, m repository.Metrics, l *applogger.Logger) *usecase.BarCollector {
	if !cfg.IngestionEnabled() {
		return nil
	}
	cl := l.With(applogger.String("component", "bridge"))
	stream := bridge.New(cfg.Bridge.URL, cfg.Bridge.Symbols,
		bridge.WithToken(cfg.Bridge.Token),
		bridge.WithTimeframes(cfg.Bridge.Timeframes),
		bridge.WithReconnectDelay(cfg.Bridge.ReconnectDelay),
		bridge.WithPingInterval(cfg.Bridge.PingInterval),
		bridge.WithLogger(cl),
	)
	pipe := mid.NewBarPipeline(proc, m,
		mid.WithBatch(cfg.Backend.BatchSize, cfg.Backend.BatchTimeout),
		mid.WithBufferSize(5000),
		mid.WithPipelineLogger(cl),
	)
	return usecase.NewBarCollector(stream, pipe, m, cl)
}

// ProvideKafkaConsumer creates the bars consumer; nil unless both Kafka and
// the consumer are enabled.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka_consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(consumerMetricsHook(m))
	return consumer, nil
}

type handleStartKey struct{}

// consumerMetricsHook times every handled message and counts failures.
func consumerMetricsHook(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return context.WithValue(ctx, handleStartKey{}, time.Now()), km, data, nil
		},
		After: func(ctx context.Context, _ string, _ kafka.Message, _ []byte, _ error) {
			if start, ok := ctx.Value(handleStartKey{}).(time.Time); ok {
				m.RecordLatency("consumer_handle", time.Since(start).Seconds())
			}
		},
		Err: func(context.Context, string, kafka.Message, []byte, error) {
			m.RecordError("consumer_handle")
		},
	}
}

// ProvideKafkaBarsHandler stores consumed bars into ClickHouse.
func ProvideKafkaBarsHandler(sink repository.BarSink, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, sink, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	cache icache.BytesCache,
	proc *usecase.BarProcessor,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
) *server.App {
	opts := []server.Option{}
	if collector != nil {
		opts = append(opts, server.WithIngestion(collector, proc))
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}
	if producer != nil {
		opts = append(opts, server.WithCloser("kafka producer", producer))
	}
	if rc, ok := cache.(*icache.RedisCache); ok {
		opts = append(opts, server.WithCloser("redis", rc))
	}
	return server.New(cfg, l, httpServer, chClient, opts...)
}
