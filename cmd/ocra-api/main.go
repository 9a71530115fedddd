package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ocralab/ocra/internal/api"
	"github.com/ocralab/ocra/internal/auth"
	"github.com/ocralab/ocra/internal/config"
	"github.com/ocralab/ocra/internal/core"
	"github.com/ocralab/ocra/internal/db"
	"github.com/ocralab/ocra/internal/logging"
	"github.com/ocralab/ocra/internal/metrics"
	"github.com/ocralab/ocra/internal/store"
	"github.com/ocralab/ocra/internal/store/memory"
	"github.com/ocralab/ocra/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger("ocra-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		users    store.UserStore
		sessions store.SessionStore
		audit    store.AuditStore
		ready    func() error
	)

	if cfg.DevMode {
		logger.Warn().Msg("dev mode: using in-memory stores, sessions will not survive restarts")
		users = memory.NewUserStore()
		sessions = memory.NewSessionStore()
		audit = memory.NewAuditStore()
	} else {
		if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		metrics.RegisterPgxPoolMetrics(pool)

		users = postgres.NewUserStore(pool)
		sessions = postgres.NewSessionStore(pool)
		audit = postgres.NewAuditStore(pool)
		ready = func() error { return pool.Ping(context.Background()) }
	}

	services := core.NewServices(users, sessions, audit, cfg.SessionTTL, logger)
	defer services.Audit.Close()

	discovery := auth.NewDiscoveryCache(&http.Client{Timeout: 15 * time.Second})
	flow := auth.NewFlow(cfg.OAuth, discovery, &http.Client{Timeout: 15 * time.Second})

	srv := api.NewServer(logger, services, flow, cfg, ready)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting ocra API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := services.Session.RunSweeper(ctx, cfg.SweepInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
