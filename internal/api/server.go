// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

// Package api exposes the HTTP JSON surface: registration, login,
// session checks, and project/todo operations. Authenticated endpoints
// resolve the actor from the session_key field of the request body.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/quantumix/quantumix/internal/auth"
	"github.com/quantumix/quantumix/internal/observability"
	"github.com/quantumix/quantumix/internal/tracker"
)

// AuthService is the authentication surface the API consumes.
type AuthService interface {
	Register(ctx context.Context, username, email, password, nickname string) (*auth.Account, error)
	Login(ctx context.Context, identity, password, deviceID string) (string, error)
}

// SessionReader resolves and validates session tokens.
type SessionReader interface {
	FindActive(ctx context.Context, token string, cleanup bool) (*auth.Session, error)
	Validate(ctx context.Context, token string) (bool, error)
}

// AccountReader loads accounts for actor resolution.
type AccountReader interface {
	GetByID(ctx context.Context, id int) (*auth.Account, error)
}

// TrackerService is the project/todo surface the API consumes.
type TrackerService interface {
	CreateProject(ctx context.Context, creator *auth.Account, input tracker.NewProjectInput) (*tracker.Project, error)
	TakeProject(ctx context.Context, leaderID, projectID int) (bool, error)
	FinishProject(ctx context.Context, actorTier, projectID int) (bool, error)
	FilterProjects(ctx context.Context, actorTier int, filter tracker.ProjectFilter) ([]*tracker.Project, error)
	CreateTodo(ctx context.Context, creator *auth.Account, input tracker.NewTodoInput) (*tracker.Todo, error)
	TakeTodo(ctx context.Context, ownerID, todoID int) (bool, error)
	FinishTodo(ctx context.Context, actorTier, todoID int) (bool, error)
	FilterTodos(ctx context.Context, actorTier int, filter tracker.TodoFilter) ([]*tracker.Todo, error)
}

// Server wires the HTTP surface to the core services.
type Server struct {
	auth     AuthService
	sessions SessionReader
	accounts AccountReader
	tracker  TrackerService
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewServer creates an API server. metrics may be nil.
func NewServer(
	authSvc AuthService,
	sessions SessionReader,
	accounts AccountReader,
	trackerSvc TrackerService,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*Server, error) {
	if authSvc == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if sessions == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("session reader is required")
	}
	if accounts == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("account reader is required")
	}
	if trackerSvc == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("tracker service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		auth:     authSvc,
		sessions: sessions,
		accounts: accounts,
		tracker:  trackerSvc,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.logRequests)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/session", s.handleSessionCheck)

	r.Route("/project", func(r chi.Router) {
		r.Post("/new", s.handleNewProject)
		r.Post("/take", s.handleTakeProject)
		r.Post("/finish", s.handleFinishProject)
		r.Post("/filter", s.handleFilterProjects)
	})
	r.Route("/todo", func(r chi.Router) {
		r.Post("/new", s.handleNewTodo)
		r.Post("/take", s.handleTakeTodo)
		r.Post("/finish", s.handleFinishTodo)
		r.Post("/filter", s.handleFilterTodos)
	})

	return r
}

// actorFromSession resolves the authenticated account for a session
// key, deleting the session row when it turns out to be expired.
func (s *Server) actorFromSession(ctx context.Context, sessionKey string) (*auth.Account, error) {
	session, err := s.sessions.FindActive(ctx, sessionKey, true)
	if err != nil {
		return nil, err //nolint:wrapcheck // oops context added at lookup site
	}
	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			// The account vanished under a live session; treat as
			// unauthenticated rather than a server fault.
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
		}
		return nil, err //nolint:wrapcheck // oops context added at lookup site
	}
	return account, nil
}

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("api server started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return oops.Code("API_SHUTDOWN_FAILED").Wrap(err)
		}
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return oops.Code("API_SERVE_FAILED").With("addr", addr).Wrap(err)
	}
}
