package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/txclean/internal/config"
	"github.com/JonMunkholm/txclean/internal/logging"
	"github.com/JonMunkholm/txclean/internal/pipeline"
	"github.com/JonMunkholm/txclean/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"pipeline_config", cfg.Clean.ConfigPath,
		"output_dir", cfg.Clean.OutputDir,
		"sink_enabled", cfg.SinkEnabled(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	deps, err := pipeline.Setup(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	opts := []web.Option{web.WithLogger(logger), web.WithMetrics(deps.Metrics)}
	if deps.Pool != nil {
		opts = append(opts, web.WithHealthCheck("database", deps.Pool.Ping))
	}
	server := web.NewServer(deps.Orchestrator, cfg, opts...)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active runs to complete (with timeout)
		limiter := deps.Orchestrator.Limiter()
		if status := limiter.Status(); status.Active > 0 {
			logger.Info("waiting for runs to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("runs did not complete in time", "error", err)
			} else {
				logger.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
