package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tournevent/courier/internal/config"
	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/graphql"
	"github.com/tournevent/courier/internal/journal"
	"github.com/tournevent/courier/internal/location"
	"github.com/tournevent/courier/internal/orders"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pathao"
	"github.com/tournevent/courier/pkg/courier/redx"
	"github.com/tournevent/courier/pkg/courier/steadfast"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

// app holds the wired components shared by the commands.
type app struct {
	logger       *otelzap.Logger
	promRegistry *prometheus.Registry
	metrics      *telemetry.Metrics
	registry     *courier.Registry
	source       *orders.Source
	dispatcher   *dispatch.Dispatcher
	lookup       *location.Lookup
	closers      []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*app, error) {
	a := &app{logger: logger, promRegistry: prometheus.NewRegistry()}
	a.promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = telemetry.NewMetrics(a.promRegistry)

	tracer, shutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		a.closers = append(a.closers, shutdown)
	}

	var src location.Sources
	a.registry, src = initCourierRegistry(cfg, logger, tracer)

	ordersClient := orders.NewClient(orders.ClientConfig{
		BaseURL: cfg.OrdersBaseURL,
		Token:   cfg.OrdersToken,
		Timeout: cfg.OrdersTimeout,
		Retry: orders.RetryConfig{
			MaxAttempts: cfg.OrdersRetryAttempts,
			BaseDelay:   cfg.OrdersRetryBaseDelay,
			MaxDelay:    cfg.OrdersRetryMaxDelay,
		},
	}, logger, a.metrics.OrderAPIRetries)
	a.source = orders.NewSource(ordersClient, logger)

	j, err := a.initJournal(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.dispatcher = dispatch.NewDispatcher(a.registry, dispatch.NewUpdater(ordersClient), j, logger, a.metrics)
	a.lookup = location.NewLookup(src, a.initCache(ctx, cfg))

	return a, nil
}

func (a *app) resolver() *graphql.Resolver {
	return graphql.NewResolver(a.registry, a.source, a.dispatcher, a.lookup, a.logger, a.metrics)
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("Shutdown step failed", zap.Error(err))
		}
	}
}

func initCourierRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*courier.Registry, location.Sources) {
	registry := courier.NewRegistry()
	var src location.Sources

	// Register enabled carriers
	if cfg.PathaoEnabled {
		pc := pathao.New(pathao.Config{
			BaseURL:      cfg.PathaoBaseURL,
			ClientID:     cfg.PathaoClientID,
			ClientSecret: cfg.PathaoClientSecret,
			Username:     cfg.PathaoUsername,
			Password:     cfg.PathaoPassword,
			UseMock:      cfg.PathaoUseMock,
		}, logger, tracer)
		registry.Register(pc)
		src.Pathao = pc
	}

	if cfg.RedXEnabled {
		rc := redx.New(redx.Config{
			BaseURL:     cfg.RedXBaseURL,
			AccessToken: cfg.RedXAccessToken,
			UseMock:     cfg.RedXUseMock,
		}, logger, tracer)
		registry.Register(rc)
		src.RedX = rc
	}

	if cfg.SteadfastEnabled {
		sc := steadfast.New(steadfast.Config{
			BaseURL:   cfg.SteadfastBaseURL,
			APIKey:    cfg.SteadfastAPIKey,
			SecretKey: cfg.SteadfastSecretKey,
			UseMock:   cfg.SteadfastUseMock,
		}, logger, tracer)
		registry.Register(sc)
		src.Steadfast = sc
	}

	return registry, src
}

// initJournal opens the shipment journal. Without a database URL nothing is
// kept and reconcile has nothing to do.
func (a *app) initJournal(ctx context.Context, cfg *config.Config) (journal.Journal, error) {
	if cfg.DatabaseURL == "" {
		a.logger.Info("DATABASE_URL not set, shipment journal disabled")
		return journal.Nop{}, nil
	}

	if cfg.AutoMigrate {
		if err := journal.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}
	pool, err := journal.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		pool.Close()
		return nil
	})
	return journal.NewPgJournal(pool), nil
}

// initCache connects the location cache. An unreachable Redis is logged and
// lookups go straight to the providers.
func (a *app) initCache(ctx context.Context, cfg *config.Config) *location.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb, err := location.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		a.logger.Warn("Location cache disabled", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	return location.NewCache(rdb, cfg.LocationTTL, a.logger, a.metrics)
}
