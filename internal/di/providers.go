package di

import (
	"context"
	"fmt"
	"time"

	"LiqPull/internal/domain/repository"
	"LiqPull/internal/handler/api"
	"LiqPull/internal/handler/ws"
	internalrepo "LiqPull/internal/repository"
	icache "LiqPull/internal/service/cache"
	"LiqPull/internal/service/coingecko"
	"LiqPull/internal/service/fred"
	"LiqPull/internal/service/ratelimit"
	"LiqPull/internal/services/analytics"
	"LiqPull/internal/usecase"
	pkgcache "LiqPull/pkg/cache"
	pkgch "LiqPull/pkg/clickhouse"
	"LiqPull/pkg/config"
	xhttp "LiqPull/pkg/http"
	pkgkafka "LiqPull/pkg/kafka"
	applogger "LiqPull/pkg/logger"
	"LiqPull/pkg/metrics"
	"LiqPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesSource creates the FRED client.
func ProvideSeriesSource(cfg *config.Config) repository.SeriesSource {
	httpClient := xhttp.NewClient(
		xhttp.WithTimeout(cfg.FRED.Timeout),
		xhttp.WithRateLimit(cfg.FRED.RateLimit, cfg.FRED.Burst),
		xhttp.WithUserAgent("liqpull/1.0"),
	)
	return fred.New(cfg.FRED.APIKey,
		fred.WithBaseURL(cfg.FRED.BaseURL),
		fred.WithTimeout(cfg.FRED.Timeout),
		fred.WithHTTPClient(httpClient),
	)
}

// ProvidePriceSource creates the reference asset price client, or nil when the overlay is off.
func ProvidePriceSource(cfg *config.Config) repository.PriceSource {
	if !cfg.Overlay.Enabled {
		return nil
	}
	httpClient := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Overlay.Timeout),
		xhttp.WithRateLimit(cfg.Overlay.RateLimit, 2),
		xhttp.WithUserAgent("liqpull/1.0"),
	)
	return coingecko.New(
		coingecko.WithBaseURL(cfg.Overlay.BaseURL),
		coingecko.WithAPIKey(cfg.Overlay.APIKey),
		coingecko.WithAssetID(cfg.Overlay.AssetID),
		coingecko.WithTimeout(cfg.Overlay.Timeout),
		coingecko.WithHTTPClient(httpClient),
	)
}

// ProvideCacheService creates the key-value cache: Redis behind an in-process
// L1 when the redis backend is selected, otherwise memory only.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, func(), error) {
	if cfg.Liquidity.CacheBackend != "redis" {
		mc := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(1000))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(100),
		pkgcache.WithLayeredMemoryTTL(time.Minute),
	)
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideResultCache picks the snapshot cache matching the configured backend.
func ProvideResultCache(cfg *config.Config, svc pkgcache.Service, l *applogger.Logger) repository.ResultCache {
	if cfg.Liquidity.CacheBackend == "redis" {
		return internalrepo.NewSharedResultCache(svc, cfg.Liquidity.CacheTTL*3, l)
	}
	return icache.NewMemoryResultCache()
}

// ProvideAnalytics creates the post-join analytics stages.
func ProvideAnalytics(cfg *config.Config) usecase.Analytics {
	th := cfg.Liquidity.Thresholds
	return usecase.Analytics{
		Derived:   analytics.NewDerivedCalculator(th),
		Overlay:   analytics.NewOverlayBuilder(th),
		Anomalies: analytics.NewAnomalyDetector(),
		Signals:   analytics.NewSignalAggregator(th),
	}
}

// ProvideKafkaPublisher creates the snapshot publisher, or nil when Kafka is off.
func ProvideKafkaPublisher(cfg *config.Config) (*internalrepo.KafkaSnapshotPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideHistoryStore connects to ClickHouse and prepares the history table,
// or returns nil when ClickHouse is off.
func ProvideHistoryStore(cfg *config.Config, l *applogger.Logger) (*internalrepo.CHIndicatorHistory, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.HistorySchema()); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	l.Info("clickhouse history store ready", applogger.String("database", cfg.ClickHouse.Database))
	return internalrepo.NewCHIndicatorHistory(client.DB(), l), func() { _ = client.Close() }, nil
}

// ProvideHub creates the websocket hub, or nil when streaming is off.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	if !cfg.Websocket.Enabled {
		return nil
	}
	return ws.NewHub(l)
}

// ProvideEngine assembles the liquidity engine with every enabled sink.
func ProvideEngine(
	cfg *config.Config,
	series repository.SeriesSource,
	prices repository.PriceSource,
	cache repository.ResultCache,
	an usecase.Analytics,
	m repository.Metrics,
	kafkaPub *internalrepo.KafkaSnapshotPublisher,
	history *internalrepo.CHIndicatorHistory,
	hub *ws.Hub,
	l *applogger.Logger,
) *usecase.LiquidityEngine {
	opts := []usecase.EngineOption{
		usecase.WithMetrics(m),
		usecase.WithFreshness(cfg.Liquidity.CacheTTL),
		usecase.WithCycleTimeout(cfg.Liquidity.CycleTimeout),
		usecase.WithPublishTimeout(cfg.Liquidity.PublishTimeout),
	}
	if prices != nil {
		opts = append(opts, usecase.WithPriceSource(prices))
	}
	// typed nils must not reach the publisher list
	var pubs []repository.SnapshotPublisher
	if kafkaPub != nil {
		pubs = append(pubs, kafkaPub)
	}
	if history != nil {
		pubs = append(pubs, history)
	}
	if hub != nil {
		pubs = append(pubs, hub)
	}
	opts = append(opts, usecase.WithPublishers(pubs...))

	return usecase.NewLiquidityEngine(series, cache, an, l, opts...)
}

// ProvideRefresher creates the scheduled refresher guarded by the shared cache lock.
func ProvideRefresher(cfg *config.Config, engine *usecase.LiquidityEngine, svc pkgcache.Service, l *applogger.Logger) *usecase.Refresher {
	r := usecase.NewRefresher(engine, cfg.Scheduler.Timeout, l)
	r.SetLocker(svc)
	return r
}

// ProvideRefreshLimiter creates the per-client manual refresh limiter. Idle
// clients are forgotten after an hour.
func ProvideRefreshLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.WithJanitor(10*time.Minute, time.Hour))
}

// ProvideHTTPHandler registers the REST and websocket routes.
func ProvideHTTPHandler(
	engine *usecase.LiquidityEngine,
	history *internalrepo.CHIndicatorHistory,
	hub *ws.Hub,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
) xhttp.Handler {
	h := api.NewLiquidityEchoHandler(l, engine, rl)
	if history != nil {
		h.SetHistory(history)
	}
	handlers := xhttp.Handlers{h}
	if hub != nil {
		handlers = append(handlers, hub)
	}
	return handlers
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	engine *usecase.LiquidityEngine,
	refresher *usecase.Refresher,
	handler xhttp.Handler,
	hub *ws.Hub,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, engine, refresher, handler, l)
	app.OnShutdown(rl.Close)
	if hub != nil {
		app.OnShutdown(hub.Close)
	}
	return app
}
