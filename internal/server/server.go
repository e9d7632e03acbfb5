// Package server wires the application together and owns the HTTP server.
//
// It is the composition root: New opens the database, builds the token and
// password services, the services and the handlers, and mounts them on one
// chi router. Handlers never touch the database and services never touch
// HTTP.
//
//	config → sqldb.DB → services → handlers → chi routes
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
	"github.com/go-chi/cors"

	"github.com/sakif/communities/internal/auth"
	"github.com/sakif/communities/internal/config"
	"github.com/sakif/communities/internal/handler"
	"github.com/sakif/communities/internal/middleware"
	"github.com/sakif/communities/internal/repository/sqldb"
	"github.com/sakif/communities/internal/service"
)

// Server represents the HTTP server and everything it owns. The database
// connection is closed when Start returns, or by Close when Start is never
// called.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqldb.DB
}

// New opens the database, seeds the default roles when configured to and
// builds the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqldb.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the root handler, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
//	GET    /healthz                     database ping
//	GET    /metrics                     Prometheus
//	POST   /v1/auth/signup
//	POST   /v1/auth/signin
//	GET    /v1/auth/me                  auth
//	POST   /v1/role                     auth when ROLES_REQUIRE_AUTH
//	GET    /v1/role
//	POST   /v1/community                auth
//	GET    /v1/community
//	GET    /v1/community/me/owner       auth
//	GET    /v1/community/me/member      auth
//	GET    /v1/community/{id}/members
//	POST   /v1/member                   auth
//	DELETE /v1/member/{id}              auth
//
// Middleware order: request id, real ip, logging, metrics, recoverer, CORS.
// Recoverer sits inside the logger so a panic is logged as a 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret,
		auth.WithIssuer(s.config.JWTIssuer),
		auth.WithTTL(s.config.JWTTTL),
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	roleService := service.NewRoleService(s.db, s.logger)
	communityService := service.NewCommunityService(s.db, s.db, s.logger)
	memberService := service.NewMemberService(s.db, s.db, s.db, s.db, s.logger)

	if s.config.SeedRoles {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := roleService.SeedDefaults(ctx); err != nil {
			return err
		}
	}

	authHandler := handler.NewAuthHandler(authService, s.logger)
	roleHandler := handler.NewRoleHandler(roleService, s.logger)
	communityHandler := handler.NewCommunityHandler(communityService, s.logger)
	memberHandler := handler.NewMemberHandler(memberService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	metrics := middleware.NewMetrics()

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	requireAuth := auth.RequireAuth(tokens, s.db, s.logger)

	// === Operational Routes ===
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	// === API Routes ===
	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/signin", authHandler.HandleSignin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/role", func(r chi.Router) {
			if s.config.RolesRequireAuth {
				r.With(requireAuth).Post("/", roleHandler.HandleCreate)
			} else {
				r.Post("/", roleHandler.HandleCreate)
			}
			r.Get("/", roleHandler.HandleList)
		})

		r.Route("/community", func(r chi.Router) {
			r.Get("/", communityHandler.HandleList)
			r.Get("/{id}/members", communityHandler.HandleListMembers)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", communityHandler.HandleCreate)
				r.Get("/me/owner", communityHandler.HandleListOwned)
				r.Get("/me/member", communityHandler.HandleListJoined)
			})
		})

		r.Route("/member", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", memberHandler.HandleAdd)
			r.Delete("/{id}", memberHandler.HandleRemove)
		})
	})

	return nil
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close the
// database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.db.Driver()),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
