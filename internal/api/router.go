package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the dependencies the HTTP router needs. Building
// the router never starts the simulation, so tests can mount it on
// httptest. When RateLimiter is nil, the limiter NewRouter creates runs
// its own cleanup goroutine; pass one in to start no background workers.
type RouterConfig struct {
	Handlers *Handlers

	// RateLimiter is optional; one is created from RateLimitConfig or
	// the defaults when nil.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to localhost-only when nil.
	CORSOrigins []string

	// StaticDir serves the client bundle at /. Empty disables it.
	StaticDir string

	DisableLogging bool
}

// NewRouter builds the public HTTP surface: the API routes, health check
// and static client assets. The websocket route is attached by Server,
// which owns the session state.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limit before CORS so floods are rejected early.
	rl := cfg.RateLimiter
	if rl == nil {
		rlCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rlCfg = *cfg.RateLimitConfig
		}
		rl = NewIPRateLimiter(rlCfg)
	}
	r.Use(rl.Middleware)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", cfg.Handlers.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", cfg.Handlers.handleState)
		r.Get("/stats", cfg.Handlers.handleStats)
	})

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	return r
}
