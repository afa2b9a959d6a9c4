// Package server is the composition root: it opens the configured store,
// wires repositories into services and handlers, and mounts the routes.
//
// DEPENDENCY FLOW:
//
//	config.Config -> OpenStore -> repository.Store
//	Store.Posts()    -> PostService    -> PostHandler, StreamHandler
//	Store.Comments() -> CommentService -> CommentHandler
//	Store.Users()    -> AuthService    -> AuthHandler (when JWT_SECRET is set)
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/devblog/internal/auth"
	"github.com/sakif/devblog/internal/config"
	"github.com/sakif/devblog/internal/handler"
	"github.com/sakif/devblog/internal/middleware"
	"github.com/sakif/devblog/internal/repository"
	"github.com/sakif/devblog/internal/repository/mongodb"
	sqliteRepo "github.com/sakif/devblog/internal/repository/sqlite"
	"github.com/sakif/devblog/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// OpenStore opens the backend named by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return db, nil

	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB, logger)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Server holds the router and the store it serves. The store is owned by
// the caller, which closes it after Run returns.
type Server struct {
	router chi.Router
	config *config.Config
	logger *slog.Logger
	store  repository.Store

	streams *handler.StreamHandler
}

// New wires every layer on top of store.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTE STRUCTURE:
//
//	GET    /                          shell page
//	GET    /api/status                store check
//	GET    /api/posts                 newest posts
//	GET    /api/posts/page            one page of posts (cursor paging)
//	GET    /api/posts/stream          live posts (SSE)
//	GET    /api/posts/{id}            one post
//	GET    /api/posts/{id}/comments   comments of a post
//
// With auth enabled, additionally:
//
//	POST   /api/posts                 create post
//	PUT    /api/posts/{id}            update post (author only)
//	DELETE /api/posts/{id}            delete post (author only)
//	POST   /api/posts/{id}/comments   add comment
//	PUT    /api/comments/{id}         update comment (author only)
//	DELETE /api/comments/{id}         delete comment (author only)
//	GET    /api/me                    signed-in user
//	GET    /auth/github/login         start GitHub sign-in
//	GET    /auth/github/callback      finish GitHub sign-in
//	POST   /auth/logout               sign out
//
// Middleware runs in the order added: request id, real IP, panic
// recovery, request logging.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	postService := service.NewPostService(s.store.Posts(), s.logger)
	commentService := service.NewCommentService(s.store.Comments(), s.store.Posts(), s.logger)

	var (
		tokens      *auth.TokenService
		authService *service.AuthService
	)
	if s.config.AuthEnabled() {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		authService = service.NewAuthService(s.store.Users(), tokens, s.logger)
	} else {
		s.logger.Warn("JWT_SECRET not set: authentication and all write routes are disabled")
	}

	// A nil UserLookup is never reached: it is only used by write routes.
	var users handler.UserLookup
	if authService != nil {
		users = authService
	}

	postHandler := handler.NewPostHandler(postService, users, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, users, s.logger)
	streamHandler := handler.NewStreamHandler(postService, s.logger)
	s.streams = streamHandler

	shellHandler, err := handler.NewShellHandler(s.store.Posts(), s.config.StoreDriver, s.config.AuthEnabled(), s.logger)
	if err != nil {
		return fmt.Errorf("creating shell handler: %w", err)
	}

	var authHandler *handler.AuthHandler
	if authService != nil {
		github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		authHandler = handler.NewAuthHandler(github, authService, s.logger)
	}

	s.router.Get("/", shellHandler.HandleShell)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", shellHandler.HandleStatus)

		r.Group(func(r chi.Router) {
			if tokens != nil {
				r.Use(auth.OptionalAuth(tokens))
			}
			r.Get("/posts", postHandler.HandleList)
			r.Get("/posts/page", postHandler.HandlePage)
			r.Get("/posts/stream", streamHandler.HandleStream)
			r.Get("/posts/{id}", postHandler.HandleGet)
			r.Get("/posts/{id}/comments", commentHandler.HandleList)
		})

		if tokens == nil {
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/posts", postHandler.HandleCreate)
			r.Put("/posts/{id}", postHandler.HandleUpdate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/posts/{id}/comments", commentHandler.HandleCreate)
			r.Put("/comments/{id}", commentHandler.HandleUpdate)
			r.Delete("/comments/{id}", commentHandler.HandleDelete)
			r.Get("/me", authHandler.HandleMe)
		})
	})

	if authHandler != nil {
		s.router.Route("/auth", func(r chi.Router) {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
			r.Post("/logout", authHandler.HandleLogout)
		})
	}

	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
//
// The listener and the shutdown watcher run in one errgroup: if the
// listener fails, the group context is cancelled and the watcher returns;
// if ctx is cancelled (SIGINT/SIGTERM in main), the watcher calls Shutdown
// and the listener returns http.ErrServerClosed.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second, // the SSE handler lifts this per stream
		IdleTimeout:  60 * time.Second,
	}
	// Open SSE streams never go idle; end them so Shutdown can finish.
	srv.RegisterOnShutdown(s.streams.Shutdown)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.StoreDriver),
			slog.Bool("auth", s.config.AuthEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
