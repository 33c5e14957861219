// Package pipeline runs a whole cleaning job: read the input, build the error
// report, dispatch remediation, add enrichment columns, then hand the result
// to every configured exporter.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/JonMunkholm/txclean/internal/export"
	"github.com/JonMunkholm/txclean/internal/ingest"
	"github.com/JonMunkholm/txclean/internal/logging"
	"github.com/JonMunkholm/txclean/internal/metrics"
	"github.com/google/uuid"
)

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Source   string
	Report   core.ErrorReport
	Dataset  *core.Dataset
	Steps    []core.StepSummary
	RowsIn   int
	RowsOut  int
	Skipped  bool // remediation skipped for an empty dataset
	Duration time.Duration
}

// Orchestrator wires the reader, dispatcher and exporters together.
// It is safe for concurrent use; each run owns its dataset.
type Orchestrator struct {
	cfg        core.Config
	reader     *ingest.Reader
	dispatcher *core.Dispatcher
	exporters  []export.Exporter
	metrics    *metrics.Metrics
	limiter    *RunLimiter
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReader replaces the default input reader.
func WithReader(r *ingest.Reader) Option {
	return func(o *Orchestrator) { o.reader = r }
}

// WithDispatcher replaces the default dispatcher.
func WithDispatcher(d *core.Dispatcher) Option {
	return func(o *Orchestrator) { o.dispatcher = d }
}

// WithExporters appends exporters run after every successful clean.
func WithExporters(e ...export.Exporter) Option {
	return func(o *Orchestrator) { o.exporters = append(o.exporters, e...) }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLimiter bounds concurrent runs with l.
func WithLimiter(l *RunLimiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// New creates an orchestrator for cfg. It fails if cfg does not validate.
func New(cfg core.Config, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.reader == nil {
		o.reader = ingest.NewReader(logger)
	}
	if o.dispatcher == nil {
		o.dispatcher = core.NewDispatcher(logger)
	}
	return o, nil
}

// Config returns the cleaning config the orchestrator runs with.
func (o *Orchestrator) Config() core.Config { return o.cfg }

// Limiter returns the run limiter, or nil when runs are unbounded.
func (o *Orchestrator) Limiter() *RunLimiter { return o.limiter }

// Validate reads src and returns its error report without cleaning it.
func (o *Orchestrator) Validate(ctx context.Context, src ingest.Source) (*Result, error) {
	start := time.Now()

	ds, err := o.reader.Read(ctx, src)
	if err != nil {
		return nil, err
	}

	report := core.Aggregate(ds, o.cfg)
	if o.metrics != nil {
		o.metrics.ObserveReport(report)
	}

	return &Result{
		RunID:    uuid.NewString(),
		Source:   src.Name,
		Report:   report,
		Dataset:  ds,
		RowsIn:   ds.Len(),
		RowsOut:  ds.Len(),
		Skipped:  report.IsEmptyDataset(),
		Duration: time.Since(start),
	}, nil
}

// Run reads src and cleans it end to end.
func (o *Orchestrator) Run(ctx context.Context, src ingest.Source) (*Result, error) {
	release, err := o.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	ds, err := o.reader.Read(ctx, src)
	if err != nil {
		o.finish(metrics.StatusFailed, start)
		return nil, err
	}
	return o.clean(ctx, src.Name, ds, start)
}

// RunDataset cleans an already loaded dataset. name identifies it in logs
// and output file names.
func (o *Orchestrator) RunDataset(ctx context.Context, name string, ds *core.Dataset) (*Result, error) {
	release, err := o.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return o.clean(ctx, name, ds, time.Now())
}

func (o *Orchestrator) clean(ctx context.Context, name string, ds *core.Dataset, start time.Time) (*Result, error) {
	if o.metrics != nil {
		done := o.metrics.RunStarted()
		defer done()
	}

	runID := uuid.NewString()
	logger := logging.Enrich(ctx, o.logger).With("run_id", runID, "source", name)
	logger.Info("run started", "rows", ds.Len(), "columns", len(ds.Columns))

	report := core.Aggregate(ds, o.cfg)
	if o.metrics != nil {
		o.metrics.ObserveReport(report)
	}
	logger.Info("validation finished",
		"flagged_columns", len(report.Columns()),
		"empty_dataset", report.IsEmptyDataset(),
	)

	res := &Result{
		RunID:  runID,
		Source: name,
		Report: report,
		RowsIn: ds.Len(),
	}

	if report.IsEmptyDataset() {
		res.Dataset = ds.Clone()
		res.Skipped = true
		res.Duration = time.Since(start)
		logger.Info("empty dataset, nothing to clean")
		o.finish(metrics.StatusSkipped, start)
		return res, nil
	}

	cleaned, steps, err := o.dispatcher.WithLogger(logger).Run(ds, report, o.cfg)
	res.Steps = steps
	if err != nil {
		logger.Error("cleaning failed", "error", err)
		o.finish(metrics.StatusFailed, start)
		return nil, fmt.Errorf("clean %s: %w", name, err)
	}

	for _, enricher := range core.Enrichers(o.cfg.Transforms) {
		cleaned, err = enricher.Clean(cleaned)
		if err != nil {
			logger.Error("enrichment failed", "step", enricher.Name(), "error", err)
			o.finish(metrics.StatusFailed, start)
			return nil, fmt.Errorf("enrich %s: %w", name, err)
		}
		logger.Debug("enrichment applied", "step", enricher.Name())
	}

	res.Dataset = cleaned
	res.RowsOut = cleaned.Len()

	if err := ctx.Err(); err != nil {
		o.finish(metrics.StatusFailed, start)
		return nil, err
	}

	run := export.Run{
		ID:       runID,
		Source:   name,
		Dataset:  cleaned,
		Report:   report,
		Steps:    steps,
		RowsIn:   res.RowsIn,
		Schema:   o.schema(),
		Finished: time.Now().UTC(),
	}
	for _, e := range o.exporters {
		if err := e.Export(ctx, run); err != nil {
			logger.Error("export failed", "exporter", e.Name(), "error", err)
			o.finish(metrics.StatusFailed, start)
			return nil, fmt.Errorf("export %s: %w", e.Name(), err)
		}
	}

	res.Duration = time.Since(start)
	if o.metrics != nil {
		o.metrics.ObserveRows(res.RowsIn, res.RowsOut)
		o.metrics.ObserveSteps(steps)
	}
	o.finish(metrics.StatusSuccess, start)

	logger.Info("run finished",
		"rows_in", res.RowsIn,
		"rows_out", res.RowsOut,
		"steps", len(steps),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// acquire takes a run slot when a limiter is configured.
func (o *Orchestrator) acquire(ctx context.Context) (func(), error) {
	if o.limiter == nil {
		return func() {}, nil
	}
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		o.finish(metrics.StatusRejected, time.Now())
		return nil, err
	}
	return release, nil
}

func (o *Orchestrator) finish(status string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RunFinished(status, time.Since(start))
	}
}

func (o *Orchestrator) schema() core.Schema {
	if o.cfg.Types.Schema != nil {
		return o.cfg.Types.Schema
	}
	return core.DefaultSchema()
}
