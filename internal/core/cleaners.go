package core

// cleaners.go holds the remediation steps the dispatcher chains together.
//
// Every Cleaner consumes one dataset and returns a new one. Inputs are never
// modified, so a failed step leaves the previous dataset intact.

import "fmt"

// Cleaner is a single remediation step.
type Cleaner interface {
	Name() string
	Clean(ds *Dataset) (*Dataset, error)
}

// Deduplicator removes rows whose key column repeats.
type Deduplicator struct {
	KeyColumn string
	Keep      KeepPolicy
}

// Name implements Cleaner.
func (d Deduplicator) Name() string { return "remove_duplicates" }

// Clean implements Cleaner. Surviving rows keep their original relative order.
func (d Deduplicator) Clean(ds *Dataset) (*Dataset, error) {
	if !ds.HasColumn(d.KeyColumn) {
		return nil, fmt.Errorf("deduplicate: %w %q", ErrMissingColumn, d.KeyColumn)
	}

	counts := make(map[dedupKey]int, len(ds.Rows))
	for _, row := range ds.Rows {
		counts[keyOf(row.Get(d.KeyColumn))]++
	}

	out := NewDataset(ds.Columns...)
	seen := make(map[dedupKey]int, len(ds.Rows))
	for _, row := range ds.Rows {
		k := keyOf(row.Get(d.KeyColumn))
		seen[k]++

		var keep bool
		switch d.Keep {
		case KeepLast:
			keep = seen[k] == counts[k]
		case KeepNone:
			keep = counts[k] == 1
		default:
			keep = seen[k] == 1
		}
		if keep {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out, nil
}

// CategoryInferrer fills null categories from a lookup keyed on the item
// column. Items missing from the lookup (and null items) get Default.
// The category column is added when the dataset lacks it.
type CategoryInferrer struct {
	CategoryColumn string
	ItemColumn     string
	Default        string
	Lookup         map[string]string
}

// Name implements Cleaner.
func (c CategoryInferrer) Name() string { return "impute_category" }

// Clean implements Cleaner.
func (c CategoryInferrer) Clean(ds *Dataset) (*Dataset, error) {
	if !ds.HasColumn(c.ItemColumn) {
		return nil, fmt.Errorf("impute category: %w %q", ErrMissingColumn, c.ItemColumn)
	}

	out := ds.withColumns(c.CategoryColumn)
	for _, row := range out.Rows {
		if !row.Get(c.CategoryColumn).IsNull() {
			continue
		}
		label := c.Default
		if item, ok := row.Get(c.ItemColumn).Str(); ok {
			if cat, found := c.Lookup[item]; found {
				label = cat
			}
		}
		row[c.CategoryColumn] = String(label)
	}
	return out, nil
}

// CriticalDropper removes rows that hold a null, or one of MissingTokens, in
// any of Columns. Columns the dataset does not have are ignored.
type CriticalDropper struct {
	Columns       []string
	MissingTokens []string
}

// Name implements Cleaner.
func (c CriticalDropper) Name() string { return "drop_critical_nulls" }

// Clean implements Cleaner.
func (c CriticalDropper) Clean(ds *Dataset) (*Dataset, error) {
	var cols []string
	for _, col := range c.Columns {
		if ds.HasColumn(col) {
			cols = append(cols, col)
		}
	}

	out := NewDataset(ds.Columns...)
	for _, row := range ds.Rows {
		if hasMissing(row, cols, c.MissingTokens) {
			continue
		}
		out.Rows = append(out.Rows, row.Clone())
	}
	return out, nil
}

func hasMissing(row Row, cols, tokens []string) bool {
	for _, col := range cols {
		if isMissing(row.Get(col), tokens) {
			return true
		}
	}
	return false
}

// isMissing reports whether v is null or a string equal to one of tokens.
func isMissing(v Value, tokens []string) bool {
	if v.IsNull() {
		return true
	}
	s, ok := v.Str()
	return ok && contains(tokens, s)
}

// NullFiller replaces nulls in Columns with a placeholder string.
type NullFiller struct {
	Columns   []string
	FillValue string
}

// Name implements Cleaner.
func (f NullFiller) Name() string { return "fill_nulls" }

// Clean implements Cleaner.
func (f NullFiller) Clean(ds *Dataset) (*Dataset, error) {
	out := ds.Clone()
	for _, col := range f.Columns {
		if !out.HasColumn(col) {
			continue
		}
		for _, row := range out.Rows {
			if row.Get(col).IsNull() {
				row[col] = String(f.FillValue)
			}
		}
	}
	return out, nil
}
