package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spendwise/spendwise/internal/handler"
	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Root     *handler.Handler
	Health   *handler.HealthHandler
	Metrics  *handler.MetricsHandler
	Expenses *handler.ExpenseHandler
	Users    *handler.UserHandler
	APIKeys  *handler.APIKeyHandler
}

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Logger      *slog.Logger
	Recorder    metrics.Recorder
	Handlers    Handlers
	Auth        middleware.AuthConfig
	RateLimit   middleware.RateLimitConfig
	CORS        middleware.CORSConfig
	Security    middleware.SecurityConfig
	MaxBodySize int64
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Handlers
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(cfg.Logger, cfg.Recorder))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

	// Operational endpoints (no auth required)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Get("/metrics", h.Metrics.Metrics)
	r.Get("/openapi.yaml", serveOpenAPI)
	r.Get("/", h.Root.Hello)

	r.Route("/api/v1", func(r chi.Router) {
		// IP limit runs before auth so bad credentials are throttled too.
		r.Use(middleware.RateLimitIP(cfg.RateLimit))
		r.Use(middleware.Auth(cfg.Auth))
		r.Use(middleware.RateLimitPrincipal(cfg.RateLimit))

		r.Route("/expense", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", h.Expenses.List)
			r.With(middleware.RequireWrite()).Post("/", h.Expenses.Create)
			r.With(middleware.RequireWrite()).Put("/", h.Expenses.Replace)
			r.With(middleware.RequireWrite()).Delete("/", h.Expenses.Delete)

			r.With(middleware.RequireRead()).Get("/{id}", h.Expenses.Get)
			r.With(middleware.RequireWrite()).Patch("/{id}", h.Expenses.Patch)
			r.With(middleware.RequireWrite()).Delete("/{id}", h.Expenses.DeleteByPath)
		})

		r.With(middleware.RequireRead()).Get("/user", h.Users.Get)

		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", h.APIKeys.ListAPIKeys)
			r.With(middleware.RequireAdmin()).Post("/", h.APIKeys.CreateAPIKey)
			r.With(middleware.RequireAdmin()).Delete("/{key_id}", h.APIKeys.RevokeAPIKey)
		})
	})

	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
