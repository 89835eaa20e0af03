package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/app"
	"github.com/riskibarqy/sportsfeed/internal/config"
	"github.com/riskibarqy/sportsfeed/internal/observability"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSON(logging.LevelError).Error("load config", "error", err)
		return 1
	}

	logger := logging.NewJSON(cfg.LogLevel, logging.WithSampling(100, 100)).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	telemetry, err := observability.Start(cfg, logger)
	if err != nil {
		logger.Error("start telemetry", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Warn("shutdown telemetry", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}

	scheduler, err := app.NewScheduler(app.ScheduleConfig{
		SeriesCron: cfg.ScheduleSeriesCron,
		LiveCron:   cfg.ScheduleLiveCron,
		Location:   cfg.Location,
	}, application.Pipeline, application.Live, logger)
	if err != nil {
		logger.Error("build scheduler", "error", err)
		_ = application.Close(context.Background())
		return 1
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	scheduler.Start()
	logger.Info("scheduler started",
		"series_cron", cfg.ScheduleSeriesCron,
		"live_cron", cfg.ScheduleLiveCron,
		"timezone", cfg.Location.String(),
	)

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("http server failed", "error", err)
			code = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop timed out", "error", err)
	}
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		code = 1
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("close app", "error", err)
		code = 1
	}

	logger.Info("ingester stopped")
	return code
}
