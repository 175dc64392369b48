// package server contains middleware & handlers for the Bookshelf HTTP API
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/bookshelf/internal/auth"
	"github.com/desertthunder/bookshelf/internal/catalog"
	"github.com/desertthunder/bookshelf/internal/repositories"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps are the collaborators the API handlers use.
//
// Discogs, Handshake, Sync and Catalog are nil when the Discogs integration is not configured;
// routes that need them answer 503.
type Deps struct {
	Config    *shared.Config
	Logger    *log.Logger
	Verifier  *auth.TokenVerifier
	Users     *repositories.UserRepository
	Releases  *repositories.ReleaseRepository
	Playlists *repositories.PlaylistRepository
	Tracks    *repositories.PlaylistTrackRepository
	Discogs   services.Discogs
	Handshake *auth.Handshake
	Sync      *tasks.SyncEngine
	Catalog   *catalog.Catalog
}

// Server is the HTTP API server.
type Server struct {
	Deps
	router *BasicRouter
	server *http.Server
	logger *log.Logger
}

// New builds the router, middleware stack and [http.Server] from deps.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Server{
		Deps:   deps,
		router: NewBasicRouter(),
		logger: shared.WithLogger(logger, "component", "http"),
	}

	s.router.Use(
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
		corsMiddleware(deps.Config.Server.AllowedOrigins),
	)
	s.registerRoutes(s.router)

	s.server = &http.Server{
		Addr:              deps.Config.Server.Addr(),
		Handler:           s.router,
		ReadTimeout:       orDefault(deps.Config.Server.ReadTimeout, 30*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      orDefault(deps.Config.Server.WriteTimeout, 5*time.Minute),
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting API server", "addr", s.server.Addr, "discogs_configured", s.discogsReady())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) discogsReady() bool {
	return s.Config.DiscogsConfigured() && s.Discogs != nil && s.Handshake != nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
