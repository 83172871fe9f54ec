// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/identity/postgres"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
)

// buildCore wires the identity service from configuration. The caller
// owns the returned pool.
func buildCore(ctx context.Context, cfg *config.Config) (*identity.Service, *pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, nil, oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(pool, store.ParamStyle(cfg.Database.ParamStyle))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	hasher, err := identity.NewHasher(cfg.Hash.Scheme, cfg.Hash.SaltLength)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	svc, err := identity.NewService(
		postgres.NewUserRepository(st),
		postgres.NewPendingUserRepository(st),
		st,
		hasher,
		cfg.Policy(),
	)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return svc, pool, nil
}

// runPeriodic runs fn once, or on a fixed interval with the metrics
// server up when every > 0. Stops on SIGINT/SIGTERM.
func runPeriodic(cfg *config.Config, every time.Duration, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if every <= 0 {
		return fn(ctx)
	}

	obs := observability.NewServer(cfg.Metrics.Addr, nil)
	errCh, err := obs.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Stop(shutdownCtx) //nolint:errcheck // best effort on shutdown
	}()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	if err := fn(ctx); err != nil {
		slog.Error("run failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case serveErr := <-errCh:
			return serveErr
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				slog.Error("run failed", "error", err)
			}
		}
	}
}
