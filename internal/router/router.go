package router

import (
	"net/http"

	"risewith9-sales-api/internal/handler"
	"risewith9-sales-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	HealthHandler    *handler.HealthHandler
	AuthHandler      *handler.AuthHandler
	UnitHandler      *handler.UnitHandler
	BuyerHandler     *handler.BuyerHandler
	AccessHandler    *handler.AccessHandler
	TourHandler      *handler.TourHandler
	AnalyticsHandler *handler.AnalyticsHandler
	AdminHandler     *handler.AdminHandler
	AuthMiddleware   func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.HealthHandler != nil {
		r.Get("/api/status", cfg.HealthHandler.Status)
	}

	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.HealthHandler != nil {
				r.Get("/health", cfg.HealthHandler.Health)
				r.Get("/ready", cfg.HealthHandler.Ready)
			}

			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/login", cfg.AuthHandler.Login)
					r.Post("/logout", cfg.AuthHandler.Logout)
					r.Post("/refresh", cfg.AuthHandler.Refresh)
				})
			}

			if cfg.UnitHandler != nil {
				r.Route("/units", func(r chi.Router) {
					r.Get("/", cfg.UnitHandler.List)
					r.Get("/{id}", cfg.UnitHandler.Get)
					r.Patch("/{id}/status", cfg.UnitHandler.SetStatus)
					r.Post("/{id}/toggle", cfg.UnitHandler.Toggle)
					r.Post("/{id}/description", cfg.UnitHandler.Describe)
				})
			}

			if cfg.BuyerHandler != nil {
				r.Route("/buyers", func(r chi.Router) {
					r.Get("/", cfg.BuyerHandler.List)
					r.Post("/", cfg.BuyerHandler.Create)
					r.Get("/{id}", cfg.BuyerHandler.Get)
					r.Put("/{id}", cfg.BuyerHandler.Update)
					r.Delete("/{id}", cfg.BuyerHandler.Delete)
				})
			}

			if cfg.AccessHandler != nil {
				r.Route("/access", func(r chi.Router) {
					r.Post("/generate", cfg.AccessHandler.Generate)
					r.Get("/remaining/{buyerId}", cfg.AccessHandler.Remaining)
					r.Post("/validate", cfg.AccessHandler.Validate)
					r.Delete("/{buyerId}", cfg.AccessHandler.Revoke)
				})
			}

			if cfg.TourHandler != nil {
				r.Route("/tour", func(r chi.Router) {
					r.Post("/start", cfg.TourHandler.Start)
					r.Post("/visit", cfg.TourHandler.Visit)
					r.Post("/live", cfg.TourHandler.Live)
				})
			}

			if cfg.AnalyticsHandler != nil {
				r.Route("/analytics", func(r chi.Router) {
					r.Get("/visits", cfg.AnalyticsHandler.Visits)
					r.Post("/insight", cfg.AnalyticsHandler.Insight)
				})
			}

			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
				})
			}
		})
	})

	return r
}
