// Package api exposes the server's network surface: the websocket game
// transport, a small read-only JSON API, static client assets and the
// localhost debug listener. It owns sockets and session lifecycles; the
// simulation only ever sees send-only Conn handles.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"sightline/internal/config"
	"sightline/internal/game"
	"sightline/internal/wire"
)

// Server ties the router, the websocket sessions and the engine
// together. Construction opens no listener but does start the rate
// limiter's cleanup goroutine; Run opens the listener.
type Server struct {
	cfg    config.ServerConfig
	engine *game.Engine
	router *chi.Mux

	sessionLimiter *SessionLimiter
	rateLimiter    *IPRateLimiter
	sessionCount   int32 // atomic

	// configFrame is the CONFIG handshake, encoded once: the world is
	// immutable so every session gets the same bytes.
	configFrame []byte

	httpServer *http.Server
}

// NewServer builds the full network front end over an engine.
func NewServer(cfg config.ServerConfig, worldCfg config.WorldConfig, engine *game.Engine) (*Server, error) {
	configFrame, err := wire.EncodeConfig(engine.World(), worldCfg.ViewDistance)
	if err != nil {
		return nil, errors.Wrap(err, "build config frame")
	}

	s := &Server{
		cfg:            cfg,
		engine:         engine,
		sessionLimiter: NewSessionLimiter(cfg.MaxConnsPerIP),
		rateLimiter:    NewIPRateLimiter(DefaultRateLimitConfig),
		configFrame:    configFrame,
	}

	handlers := NewHandlers(engine)
	handlers.bindServer(s)

	s.router = NewRouter(RouterConfig{
		Handlers:    handlers,
		RateLimiter: s.rateLimiter,
		StaticDir:   cfg.StaticDir,
	})
	s.router.Get("/ws", s.handleWS)

	return s, nil
}

// Router returns the HTTP handler, for httptest-based tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains with a grace period.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
