package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/ticket-insights/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-insights/internal/auth"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
)

// RouterConfig carries everything the API router mounts.
type RouterConfig struct {
	Health     *HealthHandler
	Datasets   *DatasetHandler
	Dashboards *DashboardHandler
	WebSocket  http.Handler

	// ErrorHandler, when set, answers unknown routes with the JSON error body.
	ErrorHandler *ErrorHandler

	// TokenManager enables bearer auth on /api/v1 when non-nil.
	TokenManager *auth.TokenManager
	// RateLimiter, when non-nil, limits every /api/v1 request.
	RateLimiter *mw.RateLimiter

	AllowedOrigins []string
	CORSMaxAge     int

	Logger *slog.Logger
}

// NewRouter assembles the API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.RecoveryLogger(cfg.Logger))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
			ExposedHeaders:   []string{mw.RequestIDHeader, "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           cfg.CORSMaxAge,
		}))
	}

	if cfg.ErrorHandler != nil {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cfg.ErrorHandler.Handle(w, r, apperrors.NewNotFoundError(apperrors.ErrNotFound, "Route not found"))
		})
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (authentication is handled inside the handler)
		if cfg.WebSocket != nil {
			r.Method(http.MethodGet, "/ws", cfg.WebSocket)
		}

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(cfg.TokenManager))
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}

			r.Route("/datasets", func(r chi.Router) {
				cfg.Datasets.RegisterRoutes(r)
				cfg.Dashboards.RegisterRoutes(r)
			})
		})
	})

	return r
}
