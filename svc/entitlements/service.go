package entitlements

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tripcraft/tierkit/pkg/httpserver"
	"github.com/tripcraft/tierkit/pkg/logger"
)

// Service exposes Sessions over HTTP.
type Service struct {
	sessions      *Sessions
	log           *slog.Logger
	checks        map[string]httpserver.Check
	healthTimeout time.Duration
	corsOrigins   []string
	metrics       *Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHealthCheck registers a named dependency probe for GET /healthz.
func WithHealthCheck(name string, check httpserver.Check) ServiceOption {
	return func(s *Service) {
		if name != "" && check != nil {
			s.checks[name] = check
		}
	}
}

// WithHealthTimeout bounds each /healthz call.
func WithHealthTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.healthTimeout = d
		}
	}
}

// WithCORS allows browser requests from the given origins. Wildcards such as
// "https://*.example.com" are accepted.
func WithCORS(origins ...string) ServiceOption {
	return func(s *Service) {
		s.corsOrigins = append(s.corsOrigins, origins...)
	}
}

// WithMetrics records decisions on m and mounts GET /metrics.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService panics if sessions is nil.
func NewService(sessions *Sessions, opts ...ServiceOption) *Service {
	if sessions == nil {
		panic("entitlements: Sessions is required")
	}
	s := &Service{
		sessions:      sessions,
		log:           logger.Discard(),
		checks:        make(map[string]httpserver.Check),
		healthTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("entitlements.http"))
	return s
}

// Handler returns the router with all routes mounted.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", httpserver.HealthHandler(s.log, s.healthTimeout, s.checks))
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/accounts/{accountID}", func(r chi.Router) {
		r.Use(s.withResolver)

		r.Get("/entitlements", s.getEntitlements)
		r.Get("/features/{feature}", s.getFeature)
		r.Get("/usage", s.getUsage)
		r.Post("/usage/{kind}", s.recordUsage)
		r.Get("/upgrade-suggestions", s.getUpgradeSuggestions)
		r.Put("/plan", s.changePlan)
		r.Delete("/subscription", s.cancelSubscription)
	})

	return r
}
