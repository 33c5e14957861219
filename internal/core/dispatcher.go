package core

// dispatcher.go selects and orders remediation steps from an error report.
//
// The step order is fixed and must not change:
//
//  1. deduplicate on the key column
//  2. coerce types (arithmetic in step 3 needs numbers, not raw tokens)
//  3. impute amounts
//  4. infer category
//  5. drop rows with nulls in critical columns
//  6. fill remaining nulls in allowlisted, non-critical columns
//
// Step 5 must precede step 6: a filled placeholder would otherwise count as
// present when deciding which rows to drop.
//
// Each step is gated by its config flag and by the report carrying a relevant
// error kind for a relevant column. Steps 3 and 5 also run when a relevant
// column holds a missing token such as "ERROR". Gates are evaluated on every
// call against the current data, never cached, so running the dispatcher on
// its own output is a no-op.

import (
	"log/slog"
	"time"
)

// StepSummary records what one remediation step did.
type StepSummary struct {
	Step       string        `json:"step"`
	RowsBefore int           `json:"rows_before"`
	RowsAfter  int           `json:"rows_after"`
	Duration   time.Duration `json:"duration_ns"`
}

// RowsRemoved returns how many rows the step dropped.
func (s StepSummary) RowsRemoved() int {
	return s.RowsBefore - s.RowsAfter
}

// Dispatcher applies the configured remediation steps to a dataset.
type Dispatcher struct {
	logger   *slog.Logger
	critical []string
	lookup   map[string]string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCriticalColumns overrides the critical column list.
func WithCriticalColumns(cols ...string) DispatcherOption {
	return func(d *Dispatcher) {
		d.critical = append([]string(nil), cols...)
	}
}

// WithCategoryLookup overrides the item-to-category lookup.
func WithCategoryLookup(lookup map[string]string) DispatcherOption {
	return func(d *Dispatcher) {
		d.lookup = lookup
	}
}

// NewDispatcher creates a dispatcher that logs through logger.
// A nil logger falls back to slog.Default().
func NewDispatcher(logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		logger:   logger,
		critical: append([]string(nil), CriticalColumns...),
		lookup:   ItemToCategory,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithLogger returns a copy of d that logs through logger. The copy shares
// d's critical columns and category lookup.
func (d *Dispatcher) WithLogger(logger *slog.Logger) *Dispatcher {
	c := *d
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// Clean returns a cleaned copy of ds. The input dataset is never modified.
func (d *Dispatcher) Clean(ds *Dataset, report ErrorReport, cfg Config) (*Dataset, error) {
	out, _, err := d.Run(ds, report, cfg)
	return out, err
}

// Run is Clean plus a summary of every step that ran.
//
// Each gate sees the dataset the previous steps produced. Columns in which
// coercion nulls a value are added to a copy of the report as TYPE_ERROR
// before the later gates run, so the later steps handle those values in the
// same pass.
func (d *Dispatcher) Run(ds *Dataset, report ErrorReport, cfg Config) (*Dataset, []StepSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	cfg = cfg.withDefaults()

	if report.IsEmptyDataset() {
		d.logger.Info("empty dataset, skipping remediation")
		return ds.Clone(), nil, nil
	}

	report = report.Clone()
	current := ds.Clone()
	var summaries []StepSummary

	for _, g := range d.gates() {
		step := g(current, report, cfg)
		if step == nil {
			continue
		}
		if c, ok := step.(SchemaCoercer); ok {
			report.Merge(lossyColumns(current, c.Schema))
		}

		before := current.Len()
		d.logger.Debug("cleaning step started", "step", step.Name(), "rows", before)

		start := time.Now()
		next, err := step.Clean(current)
		if err != nil {
			d.logger.Error("cleaning step failed", "step", step.Name(), "error", err)
			return nil, summaries, err
		}

		summary := StepSummary{
			Step:       step.Name(),
			RowsBefore: before,
			RowsAfter:  next.Len(),
			Duration:   time.Since(start),
		}
		summaries = append(summaries, summary)

		d.logger.Info("cleaning step finished",
			"step", summary.Step,
			"rows_before", summary.RowsBefore,
			"rows_after", summary.RowsAfter,
			"rows_removed", summary.RowsRemoved(),
			"duration_ms", summary.Duration.Milliseconds(),
		)

		current = next
	}

	return current, summaries, nil
}

// Plan returns the gated, ordered list of steps Run would apply, with every
// gate evaluated against ds as given. Run evaluates the gates after
// deduplication instead, so a step triggered only by a removed duplicate can
// appear here and not in Run.
func (d *Dispatcher) Plan(ds *Dataset, report ErrorReport, cfg Config) []Cleaner {
	cfg = cfg.withDefaults()
	if report.IsEmptyDataset() {
		return nil
	}

	report = report.Clone()
	if cfg.Types.Apply {
		report.Merge(lossyColumns(ds, cfg.Types.Schema))
	}

	var steps []Cleaner
	for _, g := range d.gates() {
		if step := g(ds, report, cfg); step != nil {
			steps = append(steps, step)
		}
	}
	return steps
}

// gate decides whether one step applies. It returns nil when gated off.
type gate func(ds *Dataset, report ErrorReport, cfg Config) Cleaner

func (d *Dispatcher) gates() []gate {
	return []gate{
		d.deduplicate,
		d.coerce,
		d.imputeAmounts,
		d.inferCategory,
		d.dropCritical,
		d.fillNulls,
	}
}

// 1. Deduplicate
func (d *Dispatcher) deduplicate(ds *Dataset, report ErrorReport, cfg Config) Cleaner {
	key := cfg.Duplicates.KeyColumn
	if !cfg.Duplicates.Apply || !report.Has(key, DuplicatedValues) {
		return nil
	}
	return Deduplicator{KeyColumn: key, Keep: cfg.Duplicates.Keep}
}

// 2. Coerce types
func (d *Dispatcher) coerce(ds *Dataset, report ErrorReport, cfg Config) Cleaner {
	if !cfg.Types.Apply {
		return nil
	}
	return SchemaCoercer{Schema: cfg.Types.Schema, Logger: d.logger}
}

// 3. Impute amounts
func (d *Dispatcher) imputeAmounts(ds *Dataset, report ErrorReport, cfg Config) Cleaner {
	if !cfg.Imputation.ApplyAmounts {
		return nil
	}
	tokens := cfg.Nulls.MissingTokens
	for _, col := range AmountColumns {
		if report.HasAny(col, NullValues, TypeError) || holdsToken(ds, col, tokens) {
			return AmountImputer{Schema: cfg.Types.Schema, MissingTokens: tokens}
		}
	}
	return nil
}

// 4. Infer category
func (d *Dispatcher) inferCategory(ds *Dataset, report ErrorReport, cfg Config) Cleaner {
	catCol := cfg.Imputation.CategoryColumn
	if !cfg.Imputation.ApplyCategory || (ds.HasColumn(catCol) && !report.Has(catCol, NullValues)) {
		return nil
	}
	return CategoryInferrer{
		CategoryColumn: catCol,
		ItemColumn:     cfg.Imputation.ItemColumn,
		Default:        cfg.Imputation.DefaultCategory,
		Lookup:         d.lookup,
	}
}

// 5. Drop critical nulls (not configurable)
func (d *Dispatcher) dropCritical(ds *Dataset, report ErrorReport, cfg Config) Cleaner {
	tokens := cfg.Nulls.MissingTokens
	var toDrop []string
	for _, col := range d.critical {
		if report.HasAny(col, NullValues, TypeError) || holdsToken(ds, col, tokens) {
			toDrop = append(toDrop, col)
		}
	}
	if len(toDrop) == 0 {
		return nil
	}
	return CriticalDropper{Columns: toDrop, MissingTokens: tokens}
}

// 6. Fill remaining nulls
func (d *Dispatcher) fillNulls(ds *Dataset, report ErrorReport, cfg Config) Cleaner {
	if !cfg.Nulls.Apply {
		return nil
	}
	var toFill []string
	for _, col := range cfg.Nulls.Columns {
		if contains(d.critical, col) {
			continue
		}
		if report.HasAny(col, NullValues, TypeError) {
			toFill = append(toFill, col)
		}
	}
	if len(toFill) == 0 {
		return nil
	}
	return NullFiller{Columns: toFill, FillValue: cfg.Nulls.FillValue}
}

// holdsToken reports whether any cell of col is a string equal to one of tokens.
func holdsToken(ds *Dataset, col string, tokens []string) bool {
	if len(tokens) == 0 || !ds.HasColumn(col) {
		return false
	}
	for _, row := range ds.Rows {
		if s, ok := row.Get(col).Str(); ok && contains(tokens, s) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
