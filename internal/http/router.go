// Package httpapi assembles the public HTTP surface: shared middleware,
// unauthenticated operational endpoints and the authenticated API routes
// registered by each module's handler.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "notaria/pkg/platform/middleware/auth"
	"notaria/pkg/platform/middleware/metadata"
	"notaria/pkg/platform/middleware/request"
	"notaria/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Config carries everything NewRouter wires together.
type Config struct {
	Logger    *slog.Logger
	Validator authmw.JWTValidator
	Latency   request.LatencyObserver
	Health    *Health
	Handlers  []Registrar
}

// NewRouter builds the chi router. /health and /metrics are public; every
// handler route requires a bearer token.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	if cfg.Latency != nil {
		r.Use(request.Latency(cfg.Latency))
	}
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.ServeHTTP)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(api)
		}
	})
	return r
}
