// Package export writes cleaned datasets and their reports to their
// destinations: files under an output directory, an HTTP response, or a
// PostgreSQL table.
package export

import (
	"context"
	"time"

	"github.com/JonMunkholm/txclean/internal/core"
)

// Run is everything an exporter may need from a finished cleaning run.
type Run struct {
	ID       string
	Source   string
	Dataset  *core.Dataset
	Report   core.ErrorReport
	Steps    []core.StepSummary
	RowsIn   int
	Schema   core.Schema
	Finished time.Time
}

// Exporter delivers a finished run somewhere.
type Exporter interface {
	Name() string
	Export(ctx context.Context, run Run) error
}

// ReportDocument is the JSON form of a run's report.
type ReportDocument struct {
	RunID       string             `json:"run_id"`
	Source      string             `json:"source"`
	GeneratedAt time.Time          `json:"generated_at"`
	RowsIn      int                `json:"rows_in"`
	RowsOut     int                `json:"rows_out"`
	Report      core.ReportSummary `json:"report"`
	Steps       []StepDocument     `json:"steps"`
}

// StepDocument is the JSON form of one remediation step.
type StepDocument struct {
	Step        string `json:"step"`
	RowsBefore  int    `json:"rows_before"`
	RowsAfter   int    `json:"rows_after"`
	RowsRemoved int    `json:"rows_removed"`
	DurationMS  int64  `json:"duration_ms"`
}

// NewReportDocument builds the report document for run.
func NewReportDocument(run Run) ReportDocument {
	steps := make([]StepDocument, len(run.Steps))
	for i, s := range run.Steps {
		steps[i] = StepDocument{
			Step:        s.Step,
			RowsBefore:  s.RowsBefore,
			RowsAfter:   s.RowsAfter,
			RowsRemoved: s.RowsRemoved(),
			DurationMS:  s.Duration.Milliseconds(),
		}
	}

	finished := run.Finished
	if finished.IsZero() {
		finished = time.Now().UTC()
	}

	return ReportDocument{
		RunID:       run.ID,
		Source:      run.Source,
		GeneratedAt: finished,
		RowsIn:      run.RowsIn,
		RowsOut:     run.Dataset.Len(),
		Report:      core.Summarize(run.Report),
		Steps:       steps,
	}
}
