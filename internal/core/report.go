package core

// report.go merges validator output into one error report.

// Validators returns the fixed, ordered validator list.
func Validators() []Validator {
	return []Validator{
		NullValidator{},
		DuplicateValidator{},
		TypeValidator{},
	}
}

// Aggregate runs every validator in order (nulls, duplicates, types) and
// concatenates their per-column findings.
//
// A zero-row dataset short-circuits: the result is the sentinel report
// {DatasetKey: [NULL_VALUES]}, for which IsEmptyDataset returns true and
// remediation must be skipped.
func Aggregate(ds *Dataset, cfg Config) ErrorReport {
	if ds.Len() == 0 {
		return emptyDatasetReport()
	}

	report := ErrorReport{}
	for _, v := range Validators() {
		report.Merge(v.Validate(ds, cfg))
	}
	return report
}

// ReportSummary is a serializable view of a report for exporters and the API.
type ReportSummary struct {
	Columns      map[string][]ErrorKind `json:"columns"`
	EmptyDataset bool                   `json:"empty_dataset"`
	NullColumns  int                    `json:"null_columns"`
	DupColumns   int                    `json:"duplicate_columns"`
	TypeColumns  int                    `json:"type_error_columns"`
}

// Summarize builds a ReportSummary from r.
func Summarize(r ErrorReport) ReportSummary {
	cols := make(map[string][]ErrorKind, len(r))
	for _, c := range r.Columns() {
		kinds := make([]ErrorKind, len(r[c]))
		copy(kinds, r[c])
		cols[c] = kinds
	}
	if r.IsEmptyDataset() {
		return ReportSummary{Columns: cols, EmptyDataset: true}
	}
	return ReportSummary{
		Columns:     cols,
		NullColumns: r.Count(NullValues),
		DupColumns:  r.Count(DuplicatedValues),
		TypeColumns: r.Count(TypeError),
	}
}
