// Package httpserver provides a lightweight wrapper around net/http that adds
// graceful shutdown, configurable server timeouts, a readiness handler and
// structured logging via slog.
//
// The core type is Server, which augments *http.Server with:
//
//   - Graceful Shutdown: Run blocks until the context is canceled or SIGINT
//     or SIGTERM arrives, then shuts the server down with
//     http.Server.Shutdown bounded by the shutdown timeout.
//
//   - Functional Options: New and NewFromConfig accept Option helpers such
//     as WithAddr, WithReadTimeout and WithLogger.
//
//   - Hooks: WithStartHook and WithStopHook run side effects around the
//     server life-cycle.
//
//   - Health Checks: HealthHandler runs named dependency probes and reports
//     them as JSON.
//
// # Configuration
//
// Config carries env tags for github.com/caarlos0/env:
//
//	HTTP_ADDR                 listen address (default ":8080")
//	HTTP_READ_HEADER_TIMEOUT  default 5s
//	HTTP_READ_TIMEOUT         default 15s
//	HTTP_WRITE_TIMEOUT        default 15s
//	HTTP_IDLE_TIMEOUT         default 60s
//	HTTP_SHUTDOWN_TIMEOUT     default 10s
//
// NewFromConfig keeps the defaults for zero values and applies explicit
// options after the config.
//
// # Usage
//
//	var cfg httpserver.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.HealthHandler(log, 2*time.Second,
//		map[string]httpserver.Check{
//			"postgres": pg.Healthcheck(pool),
//			"redis":    redis.Healthcheck(client),
//		},
//	))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// # Health Checks
//
// HealthHandler runs every check in name order with the request context
// bounded by the timeout. It answers 200 {"status":"ok"} when all pass and
// 503 with each failing check marked "failing" otherwise. Without checks it
// serves as a liveness probe.
//
// # Errors
//
// Run wraps listen failures with ErrStart and returns ErrAlreadyRunning on a
// second call. Shutdown wraps failures with ErrShutdown. Use errors.Is to
// tell them apart.
package httpserver
