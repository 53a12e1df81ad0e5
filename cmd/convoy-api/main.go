package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deflogis/convoy/internal/analysis"
	"github.com/deflogis/convoy/internal/api"
	"github.com/deflogis/convoy/internal/config"
	"github.com/deflogis/convoy/internal/core"
	"github.com/deflogis/convoy/internal/db"
	"github.com/deflogis/convoy/internal/logging"
	"github.com/deflogis/convoy/internal/provenance"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("convoy-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	ledger, err := provenance.NewLedgerClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up ledger client")
	}
	if !ledger.Configured() {
		logger.Warn().Msg("ledger not configured, deployments will commit with failure markers")
	}

	pinner := provenance.NewPinClient(cfg.PinataAPIURL, cfg.PinataJWT, cfg.UploadTimeout, logger)
	planner := analysis.NewPlanner(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	services := core.NewServices(pool)
	deployer := provenance.NewDeployer(pinner, ledger, services.Convoy, services.Audit, logger)

	srv := api.NewServer(logger, pool, deployer, planner, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting convoy API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}
