// Command tierd serves plan entitlements and monthly usage quotas over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tripcraft/tierkit/pkg/config"
	"github.com/tripcraft/tierkit/pkg/httpserver"
	"github.com/tripcraft/tierkit/pkg/logger"
	"github.com/tripcraft/tierkit/pkg/pg"
	"github.com/tripcraft/tierkit/pkg/redis"
	"github.com/tripcraft/tierkit/pkg/tier"
	"github.com/tripcraft/tierkit/pkg/tier/pgstore"
	"github.com/tripcraft/tierkit/pkg/tier/redisstore"
	"github.com/tripcraft/tierkit/svc/entitlements"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("tierd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(entitlements.RequestIDExtractor, entitlements.AccountIDExtractor),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	catalog := tier.DefaultCatalog()
	if cfg.CatalogPath != "" {
		c, err := tier.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		catalog = c
		log.Info("loaded plan catalog", slog.String("path", cfg.CatalogPath))
	}

	backend, err := cfg.backend()
	if err != nil {
		return err
	}
	loc, err := cfg.location()
	if err != nil {
		return err
	}
	lang, err := cfg.language()
	if err != nil {
		return err
	}

	svcOpts := []entitlements.ServiceOption{
		entitlements.WithLogger(log),
		entitlements.WithCORS(cfg.CORSAllowedOrigins...),
	}

	var metrics *entitlements.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = entitlements.NewMetrics(reg)
		svcOpts = append(svcOpts, entitlements.WithMetrics(metrics))
	}

	var (
		subs  tier.SubscriptionStore
		usage tier.UsageStore
	)
	if backend == backendMemory {
		log.Warn("using in-memory stores, data is lost on restart")
		mem := tier.NewMemoryStore()
		subs, usage = mem, mem
	} else {
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, pgstore.Migrations(), log); err != nil {
			return err
		}

		store := pgstore.New(pool)
		subs, usage = store, store
		svcOpts = append(svcOpts, entitlements.WithHealthCheck("postgres", pg.Healthcheck(pool)))
	}

	if backend == backendRedis {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		usage = redisstore.New(client,
			redisstore.WithKeyPrefix(redisCfg.KeyPrefix),
			redisstore.WithTTL(redisCfg.UsageTTL),
		)
		svcOpts = append(svcOpts, entitlements.WithHealthCheck("redis", redis.Healthcheck(client)))
	}

	resolverOpts := []tier.Option{
		tier.WithLogger(log),
		tier.WithLocation(loc),
		tier.WithLanguage(lang),
		tier.WithUnknownKeyHook(func(k tier.UnknownKey) {
			metrics.RecordUnknownKey(k)
			if k.Kind == "plan" {
				log.Error("subscription references a plan missing from the catalog",
					logger.Plan(string(k.Plan)),
				)
			}
		}),
	}
	if cfg.HardQuota {
		resolverOpts = append(resolverOpts, tier.WithAtomicIncrement())
	}
	if cfg.ImmediateCancel {
		resolverOpts = append(resolverOpts, tier.WithImmediateCancel())
	}

	sessions := entitlements.NewSessions(
		func() *tier.Resolver { return tier.NewResolver(catalog, subs, usage, resolverOpts...) },
		entitlements.WithCapacity(cfg.SessionCacheSize),
		entitlements.WithIdleTTL(cfg.SessionTTL),
		entitlements.WithMaxAge(cfg.SessionMaxAge),
		entitlements.WithSessionLogger(log),
	)
	metrics.TrackSessions(sessions)
	go sessions.RunPruner(ctx, cfg.SessionPruneInterval)

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.Info("starting tierd",
		slog.String("usage_backend", backend),
		slog.Bool("hard_quota", cfg.HardQuota),
		slog.String("usage_timezone", loc.String()),
	)
	return srv.Run(ctx, entitlements.NewService(sessions, svcOpts...).Handler())
}
