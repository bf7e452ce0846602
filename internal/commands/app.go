package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"marketbrowser/internal/alphavantage"
	"marketbrowser/internal/cache"
	"marketbrowser/internal/config"
	"marketbrowser/internal/kvstore"
	"marketbrowser/internal/market"
	"marketbrowser/internal/metrics"
	"marketbrowser/internal/ratelimit"
	"marketbrowser/internal/watchlist"
)

// app holds the components one command invocation works with.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	transport  *alphavantage.Transport
	market     *market.Service
	watchlists *watchlist.Store
	closeStore func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, closeStore, err := kvstore.Open(ctx, kvstore.Options{
		Backend: cfg.StorageBackend,
		DataDir: cfg.DataDir,
		Redis: kvstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageBackend, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	transport := alphavantage.NewTransport(cfg.AlphavantageAPIKey, cfg.AlphavantageBaseURL,
		alphavantage.WithBudget(ratelimit.ForQuota(cfg.QuotaPerMinute)),
		alphavantage.WithLogger(logger),
		alphavantage.WithTimeout(cfg.HTTPTimeout),
		alphavantage.WithBreaker(cfg.BreakerFailures, cfg.BreakerCooldown))

	svc := market.New(transport,
		cache.New(store, cache.WithLogger(logger), cache.WithMetrics(m)),
		market.WithLogger(logger),
		market.WithMetrics(m),
		market.WithRequestInterval(cfg.RequestInterval),
		market.WithTTLs(cfg.OverviewTTL, cfg.ListingTTL))

	lists := watchlist.New(store, watchlist.WithLogger(logger))
	lists.Load(ctx)

	return &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		transport:  transport,
		market:     svc,
		watchlists: lists,
		closeStore: closeStore,
	}, nil
}

func (a *app) Close() {
	a.market.Close()
	if err := a.transport.Close(); err != nil {
		a.logger.Debug("closing provider client", "error", err)
	}
	if err := a.closeStore(); err != nil {
		a.logger.Warn("closing storage", "error", err)
	}
}
