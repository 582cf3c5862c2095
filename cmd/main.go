package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gala-ops/internal/api"
	"gala-ops/internal/cache"
	"gala-ops/internal/commission"
	"gala-ops/internal/config"
	"gala-ops/internal/guest"
	"gala-ops/internal/metrics"
	"gala-ops/internal/migrations"
	"gala-ops/internal/notify"
	"gala-ops/internal/ops"
	"gala-ops/internal/scheduler"
	"gala-ops/internal/store"

	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting gala-ops")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	st, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer st.Close()

	if err := migrations.RunMigrations(cfg, logger); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	summaryCache, err := cache.New(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to initialize cache", zap.Error(err))
	}
	defer summaryCache.Close()

	notifier, err := notify.New(&cfg.Alerts, logger)
	if err != nil {
		logger.Fatal("failed to initialize operator alerts", zap.Error(err))
	}

	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	locker := guest.NewRedisLocker(summaryCache.Client())
	guestService := guest.NewService(st, summaryCache, locker, metricsSystem, notifier, logger)
	commissionService := commission.NewService(st, logger)
	opsService := ops.NewService(st, logger)

	server := api.NewServer(guestService, commissionService, opsService, metricsHandler, logger)

	// Periodic reconciliation sweep
	jobScheduler := scheduler.NewScheduler(logger)
	jobScheduler.AddJob(scheduler.NewReconcileJob(guestService, notifier, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go jobScheduler.Start(ctx, time.Hour)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: server.Router(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", zap.Error(err))
			sigChan <- syscall.SIGTERM
		}
	}()

	logger.Info("application is up",
		zap.String("event", cfg.App.EventName),
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)))

	<-sigChan
	logger.Info("shutdown signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down HTTP server", zap.Error(err))
	}

	logger.Info("application stopped")
}

// initLogger initializes the logger
func initLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	return config.Build()
}
