package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/homenest/homenest/internal/config"
	"github.com/homenest/homenest/internal/handler"
	"github.com/homenest/homenest/internal/identity"
	"github.com/homenest/homenest/internal/metrics"
	"github.com/homenest/homenest/internal/middleware"
)

// handlers groups the HTTP handlers mounted by setupRouter.
type handlers struct {
	root       *handler.Handler
	health     *handler.HealthHandler
	metrics    *handler.MetricsHandler
	properties *handler.PropertyHandler
	ratings    *handler.RatingHandler
	users      *handler.UserHandler
	cities     *handler.CityHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h handlers,
	verifier identity.Verifier,
	limiter middleware.RateLimiter,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Limiter:      limiter,
		Enabled:      cfg.RateLimitEnabled && limiter != nil,
		IPRPS:        cfg.RateLimitIPRPS,
		IPBurst:      cfg.RateLimitIPBurst,
		SubjectRPM:   cfg.RateLimitSubjectRPM,
		SubjectBurst: cfg.RateLimitSubjectBurst,
	}

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTS = !cfg.IsDevelopment()
	if cfg.MaxRequestBodySize > 0 {
		securityCfg.MaxRequestBodySize = cfg.MaxRequestBodySize
	}
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.MaxBodySize(securityCfg.MaxRequestBodySize))
	r.Use(middleware.CORS(cfg.GetCORSAllowedOrigins()))
	r.Use(middleware.RateLimitIP(rateLimitCfg))

	// Operational endpoints
	r.Get("/", h.root.Root)
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)

	// Public reads and registration
	r.Post("/users", h.users.Register)
	r.Get("/cities", h.cities.List)
	r.Get("/properties", h.properties.List)
	r.Get("/featured", h.properties.Featured)
	r.Get("/latest-properties", h.properties.Featured)
	r.Get("/property/{id}", h.properties.Get)

	// Bearer-authenticated mutations
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(middleware.AuthConfig{
			Logger:   logger,
			Verifier: verifier,
			Metrics:  recorder,
		}))
		r.Use(middleware.RateLimitSubject(rateLimitCfg))

		r.Post("/add-property", h.properties.Create)

		r.Patch("/update-property/{id}", h.properties.Update)
		r.Post("/update-property/{id}", h.properties.Update)
		r.Patch("/property/{id}", h.properties.Update)

		r.Delete("/delete-property/{id}", h.properties.Delete)
		r.Post("/delete-property/{id}", h.properties.Delete)

		r.Get("/ratings", h.ratings.List)
		r.Post("/ratings", h.ratings.Submit)
	})

	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}
