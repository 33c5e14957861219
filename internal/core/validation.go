package core

// validation.go provides the read-only inspectors that classify data-quality
// defects per column.
//
// Each validator owns one ErrorKind and is gated by its own config flag. A
// disabled validator returns an empty report regardless of the data. None of
// them mutate the dataset, so they are safe to run concurrently over one
// snapshot; Aggregate runs them in a fixed order and merges the results.

// Validator inspects a dataset and reports defects per column.
type Validator interface {
	Name() string
	Validate(ds *Dataset, cfg Config) ErrorReport
}

// NullValidator flags every column holding at least one null.
type NullValidator struct{}

// Name implements Validator.
func (NullValidator) Name() string { return "nulls" }

// Validate implements Validator.
func (NullValidator) Validate(ds *Dataset, cfg Config) ErrorReport {
	report := ErrorReport{}
	if !cfg.Validations.ValidateNulls {
		return report
	}

	for _, col := range ds.Columns {
		for _, row := range ds.Rows {
			if row.Get(col).IsNull() {
				report.Add(col, NullValues)
				break
			}
		}
	}
	return report
}

// DuplicateValidator flags the unique-key column when any key repeats.
// The signal is aggregate: one entry for the column, not one per row.
type DuplicateValidator struct{}

// Name implements Validator.
func (DuplicateValidator) Name() string { return "duplicates" }

// Validate implements Validator.
func (DuplicateValidator) Validate(ds *Dataset, cfg Config) ErrorReport {
	report := ErrorReport{}
	if !cfg.Validations.ValidateDuplicates {
		return report
	}

	key := cfg.withDefaults().Duplicates.KeyColumn
	if !ds.HasColumn(key) {
		return report
	}

	seen := make(map[dedupKey]struct{}, len(ds.Rows))
	for _, row := range ds.Rows {
		k := keyOf(row.Get(key))
		if _, dup := seen[k]; dup {
			report.Add(key, DuplicatedValues)
			break
		}
		seen[k] = struct{}{}
	}
	return report
}

// TypeValidator dry-runs schema coercion and flags columns where a non-null
// value would not survive the cast.
type TypeValidator struct{}

// Name implements Validator.
func (TypeValidator) Name() string { return "types" }

// Validate implements Validator.
func (TypeValidator) Validate(ds *Dataset, cfg Config) ErrorReport {
	if !cfg.Validations.ValidateTypes {
		return ErrorReport{}
	}
	return lossyColumns(ds, cfg.withDefaults().Types.Schema)
}

// lossyColumns flags every schema column in which a cast to the declared
// type would null at least one value.
func lossyColumns(ds *Dataset, schema Schema) ErrorReport {
	report := ErrorReport{}
	for _, col := range schema.Columns() {
		if !ds.HasColumn(col) {
			continue
		}
		ft := schema[col]
		for _, row := range ds.Rows {
			if !probeValue(row.Get(col), ft) {
				report.Add(col, TypeError)
				break
			}
		}
	}
	return report
}

// dedupKey is a comparable form of a Value. Nulls share one key, so two null
// keys count as duplicates of each other.
type dedupKey struct {
	kind ValueKind
	text string
}

func keyOf(v Value) dedupKey {
	return dedupKey{kind: v.Kind(), text: v.String()}
}
