// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB → Snippet/User/Group/AuthService → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place rather than scattered across the codebase.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/config"
	"github.com/sakif/snippets/internal/executor"
	"github.com/sakif/snippets/internal/handler"
	"github.com/sakif/snippets/internal/middleware"
	sqliteRepo "github.com/sakif/snippets/internal/repository/sqlite"
	"github.com/sakif/snippets/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it after the HTTP
// server has drained, so in-flight requests never see a closed DB.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	exec   executor.Executor
}

// New opens the database and wires every route. exec may be nil, in which
// case POST /snippets/{id}/run/ answers 503.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` to keep it apart from the
// modernc.org/sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		exec:   exec,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on the way out; tests that
// never Start call it themselves.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                         → API root (links to the collections)
//	GET    /healthz                  → database ping
//	GET    /snippets/                → list          (public)
//	POST   /snippets/                → create        (public)
//	GET    /snippets/{id}/           → retrieve      (public)
//	PUT    /snippets/{id}/           → update        (public)
//	PATCH  /snippets/{id}/           → partial       (public)
//	DELETE /snippets/{id}/           → destroy       (public)
//	POST   /snippets/{id}/run/       → execute code  (public)
//	*      /users/...  /groups/...   → same shape, authenticated only
//	POST   /auth/login, /auth/logout; GET /auth/me
//	GET    /auth/github/login, /auth/github/callback (when configured)
//
// Every route also answers without the trailing slash (StripSlashes).
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID assigns a unique ID to each request
// 2. RealIP extracts the client IP from proxy headers
// 3. Logger logs each request with timing info
// 4. Recoverer turns a panic into a 500 (inside Logger, so the 500 is logged)
// 5. StripSlashes lets "/snippets/1" and "/snippets/1/" share one route
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)

	// Set before any Route call so the subrouters inherit them.
	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	tokens, err := s.tokenService()
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	// DEPENDENCY CHAIN:
	//   s.db implements every repository interface
	//   services receive the interfaces, handlers receive the services.
	snippetService := service.NewSnippetService(s.db, s.logger)
	userService := service.NewUserService(s.db, s.db, passwords, s.logger)
	groupService := service.NewGroupService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)

	pager := handler.Paginator{
		DefaultSize: s.config.Pagination.PageSize,
		MaxSize:     s.config.Pagination.MaxPageSize,
	}

	snippetHandler := handler.NewSnippetHandler(snippetService, s.exec, pager, s.logger)
	userHandler := handler.NewUserHandler(userService, pager, s.logger)
	groupHandler := handler.NewGroupHandler(groupService, pager, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(auth.GitHubConfig{
			ClientID:     s.config.GitHub.ClientID,
			ClientSecret: s.config.GitHub.ClientSecret,
			CallbackURL:  s.config.GitHub.CallbackURL,
		})
	}
	authHandler := handler.NewAuthHandler(authService, github, tokens.TTL(), s.config.GitHub.AfterLogin, s.logger)

	s.router.Get("/", handler.HandleRoot)
	s.router.Get("/healthz", handler.HandleHealth(s.db))

	// Snippets are public. OptionalAuth still records who is calling for logs.
	s.router.Route("/snippets", func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", snippetHandler.HandleList)
		r.Post("/", snippetHandler.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", snippetHandler.HandleGet)
			r.Put("/", snippetHandler.HandleUpdate)
			r.Patch("/", snippetHandler.HandlePartialUpdate)
			r.Delete("/", snippetHandler.HandleDelete)
			r.Post("/run", snippetHandler.HandleRun)
		})
	})

	// Users and groups: the permission check runs before any body is read.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleList)
			r.Post("/", userHandler.HandleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.HandleGet)
				r.Put("/", userHandler.HandleUpdate)
				r.Patch("/", userHandler.HandlePartialUpdate)
				r.Delete("/", userHandler.HandleDelete)
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.HandleList)
			r.Post("/", groupHandler.HandleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", groupHandler.HandleGet)
				r.Put("/", groupHandler.HandleUpdate)
				r.Patch("/", groupHandler.HandlePartialUpdate)
				r.Delete("/", groupHandler.HandleDelete)
			})
		})
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)

		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	return nil
}

// tokenService builds the JWT signer. Without a configured secret a random
// one is generated, which is fine for development: tokens simply stop
// working after a restart.
func (s *Server) tokenService() (*auth.TokenService, error) {
	secret := s.config.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating JWT secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		s.logger.Warn("auth.jwt_secret not set; using a random secret, tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret, s.config.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	return tokens, nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (server.shutdown_timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
			slog.Bool("executor", s.exec != nil),
			slog.Bool("github", s.config.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
