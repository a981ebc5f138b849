// Package server is the composition root: it opens storage, builds the
// services and the live-delivery hub, mounts every handler on one chi
// router and runs the HTTP server until it is told to stop.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqldb.DB (implements every repository interface)
//	  → services (auth, user, boop, badge, favorite)
//	  → realtime.Hub + realtime.Relay
//	  → handlers (pages, auth, api, ws)
//
// Each layer only receives what it needs. Handlers never touch storage and
// services never touch HTTP.
package server

import (
	"context"
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

	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/config"
	"github.com/sakif/booping/internal/handler"
	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/middleware"
	"github.com/sakif/booping/internal/realtime"
	"github.com/sakif/booping/internal/repository/sqldb"
	"github.com/sakif/booping/internal/service"
	"github.com/sakif/booping/web"
)

const shutdownTimeout = 30 * time.Second

// Server owns the database and the hub. Both are released by Close, which
// Start calls during graceful shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqldb.DB
	hub     *realtime.Hub
	metrics *metrics.Metrics
}

// New opens the database, makes sure the schema exists and wires every
// route. The caller must call Start or Close.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqldb.Open(ctx, sqldb.Options{DatabaseURL: cfg.DatabaseURL, Path: cfg.DBPath}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising schema: %w", err)
	}

	m := metrics.New()
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		hub:     realtime.NewHub(m, logger),
		metrics: m,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /, /lore, /home, /profile     HTML pages
//	POST /login, /register             form auth (rate limited)
//	GET  /logout, /auth/github/*       session
//	     /api/*                        JSON API
//	GET  /ws                           live connection
//	GET  /static/*, /metrics
//
// MIDDLEWARE ORDER:
// RequestID, then RealIP (the rate limiter keys on the client address),
// then Logger and Metrics, then Recoverer so a panic is logged as a 500.
func (s *Server) setupRoutes() error {
	cfg := s.config
	logger := s.logger

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	// === Services ===
	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	limits := service.Limits{
		MaxBoopsPerMinute:    cfg.MaxBoopsPerMinute,
		MaxDisplayNameLength: cfg.MaxDisplayNameLength,
		MaxTaglineLength:     cfg.MaxTaglineLength,
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), logger)
	badgeService := service.NewBadgeService(s.db, s.db, s.metrics, logger)
	userService := service.NewUserService(s.db, s.db, badgeService, limits, logger)
	boopService := service.NewBoopService(s.db, s.db, s.db, limits, s.metrics, logger)
	favoriteService := service.NewFavoriteService(s.db, s.db, logger)

	relay := realtime.NewRelay(s.hub, boopService, badgeService, userService, s.metrics, logger)

	// === Handlers ===
	var github *auth.GitHubProvider
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	}
	authLimiter := middleware.NewRateLimiter("auth", cfg.AuthRatePerMinute, s.metrics, logger)

	pages, err := handler.NewPageHandler(web.Templates, tokens, userService, boopService, badgeService, limits, github != nil, logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	authHandler := handler.NewAuthHandler(authService, tokens, github, authLimiter.Handler, logger)
	apiHandler := handler.NewAPIHandler(tokens, userService, boopService, badgeService, favoriteService, relay, logger)
	wsHandler := handler.NewWSHandler(tokens, relay, logger)

	// === Routes ===
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	s.router.Handle("/metrics", s.metrics.Handler())

	pages.Mount(s.router)
	authHandler.Mount(s.router)
	wsHandler.Mount(s.router)
	s.router.Route("/api", apiHandler.Mount)

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close disconnects every live connection and closes the database.
func (s *Server) Close() error {
	s.hub.Shutdown()
	return s.db.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
//  1. Stop accepting connections and wait for in-flight requests
//  2. Close live connections (they are hijacked, so Shutdown skips them)
//  3. Close the database
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing server resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.db.Dialect().Name()),
			slog.Bool("github", s.config.GitHubEnabled()),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully",
			slog.Int("liveConnections", s.hub.ConnectionCount()),
		)
	}

	return nil
}
