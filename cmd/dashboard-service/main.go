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

	"github.com/rs/zerolog"

	"dashboard-service/internal/config"
	"dashboard-service/internal/dashboard"
	"dashboard-service/internal/db"
	httphandler "dashboard-service/internal/http"
	"dashboard-service/internal/logger"
	"dashboard-service/internal/repository"
	"dashboard-service/internal/service"
	"dashboard-service/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)
	loc := cfg.Dashboard.Location

	source, err := newSource(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to set up detection source")
	}

	store := dashboard.NewStore()
	poller := dashboard.NewPoller(source, store, cfg.Dashboard.PollInterval, cfg.Dashboard.FetchLimit, appLogger, time.Now)
	dashboardService := service.NewDashboardService(store, poller, loc, time.Now)

	handler := httphandler.NewHandler(dashboardService, loc, appLogger)
	router := httphandler.NewRouter(handler, cfg.Environment, cfg.HTTP.CORSAllowedOrigins, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(ctx)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().
			Str("addr", addr).
			Str("source", cfg.SourceKind).
			Str("timezone", loc.String()).
			Msg("starting dashboard service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server shutdown failed")
	}
	<-pollerDone

	appLogger.Info().Msg("dashboard service stopped")
}

func newSource(cfg *config.Config, log zerolog.Logger) (dashboard.Source, error) {
	switch cfg.SourceKind {
	case config.SourcePostgres, config.SourceSQLite:
		database, err := db.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return repository.NewTrackingRepository(database, cfg.Dashboard.Location, time.Now), nil
	default:
		return upstream.NewClient(cfg.Upstream, cfg.Dashboard.Location, nil), nil
	}
}
