package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/txclean/internal/config"
	"github.com/JonMunkholm/txclean/internal/export"
	"github.com/JonMunkholm/txclean/internal/ingest"
	"github.com/JonMunkholm/txclean/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps is what Setup builds from process config.
type Deps struct {
	Orchestrator *Orchestrator
	Metrics      *metrics.Metrics

	// Pool is nil when no database is configured.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (d *Deps) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// Setup loads the pipeline config named by cfg and wires an orchestrator with
// the exporters, limiter and metrics the process config asks for. Extra
// options are applied last.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Deps, error) {
	cleanCfg, err := config.LoadPipeline(cfg.Clean.ConfigPath)
	if err != nil {
		return nil, err
	}

	deps := &Deps{Metrics: metrics.New(metrics.DefaultNamespace)}

	var exporters []export.Exporter
	if cfg.Clean.OutputDir != "" {
		exporters = append(exporters, export.NewFileExporter(cfg.Clean.OutputDir, logger))
	}
	if cfg.SinkEnabled() {
		pool, err := connect(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		deps.Pool = pool
		exporters = append(exporters, export.NewPostgresSink(pool, cfg.Clean.SinkTable, logger))
	}

	base := []Option{
		WithReader(ingest.NewReader(logger, ingest.WithMaxSize(cfg.Upload.MaxFileSize))),
		WithExporters(exporters...),
		WithMetrics(deps.Metrics),
		WithLimiter(NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
	}

	deps.Orchestrator, err = New(cleanCfg, logger, append(base, opts...)...)
	if err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

// connect opens and pings the sink's connection pool.
func connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		logger.Info("connected to database")
	}
	return pool, nil
}
