// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumix/quantumix/internal/api"
	"github.com/quantumix/quantumix/internal/auth"
	authpg "github.com/quantumix/quantumix/internal/auth/postgres"
	"github.com/quantumix/quantumix/internal/config"
	"github.com/quantumix/quantumix/internal/logging"
	"github.com/quantumix/quantumix/internal/observability"
	"github.com/quantumix/quantumix/internal/store"
	"github.com/quantumix/quantumix/internal/tracker"
	trackerpg "github.com/quantumix/quantumix/internal/tracker/postgres"
	"github.com/quantumix/quantumix/pkg/errutil"
)

// sessionPruneInterval is how often expired session rows for devices
// that never returned are swept from the store.
const sessionPruneInterval = time.Hour

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server: registration, login, session checks,
and project/todo operations.`,
		RunE: runServe,
	}

	cmd.Flags().String("server.addr", "", "API listen address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("log.format", "", "log format: json or text")
	cmd.Flags().String("metrics.addr", "", "observability listen address")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.Setup("quantumix", version, cfg.Log.Format, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	accounts := authpg.NewAccountRepository(pool)
	sessions := authpg.NewSessionRepository(pool)
	projects := trackerpg.NewProjectRepository(pool)
	todos := trackerpg.NewTodoRepository(pool)

	hasher := auth.NewArgon2idHasher()

	allocator, err := auth.NewSequenceAllocator(accounts, cfg.Sequence.Min, cfg.Sequence.Max, cfg.Sequence.MaxAttempts)
	if err != nil {
		return err
	}
	sessionManager, err := auth.NewSessionManager(sessions, hasher, cfg.Session.TTL, nil)
	if err != nil {
		return err
	}
	emails := auth.NewDomainAllowlistValidator(cfg.Email.AcceptedDomains)

	authService, err := auth.NewService(accounts, hasher, allocator, sessionManager, emails, logger)
	if err != nil {
		return err
	}
	trackerService, err := tracker.NewService(projects, todos, accounts, logger)
	if err != nil {
		return err
	}

	obs := observability.NewServer(cfg.Metrics.Addr, func() bool {
		return pool.Ping(ctx) == nil
	})
	obsErrCh, err := obs.Start()
	if err != nil {
		return err
	}
	defer func() {
		if err := obs.Stop(context.Background()); err != nil {
			errutil.LogError(logger, "observability shutdown failed", err)
		}
	}()

	sessionManager.OnRotate(obs.Metrics().SessionRotations.Inc)

	server, err := api.NewServer(authService, sessionManager, accounts, trackerService, logger, obs.Metrics())
	if err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(sessionPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := sessionManager.PruneExpired(ctx)
				if err != nil {
					errutil.LogError(logger, "session prune failed", err)
					continue
				}
				if deleted > 0 {
					logger.Info("expired sessions pruned", "deleted", deleted)
				}
			}
		}
	}()

	go func() {
		if obsErr, ok := <-obsErrCh; ok && obsErr != nil {
			errutil.LogError(logger, "observability server failed", obsErr)
		}
	}()

	return server.Serve(ctx, cfg.Server.Addr)
}
