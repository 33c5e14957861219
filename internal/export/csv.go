package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/txclean/internal/core"
)

// Records renders ds as string records, header first. Nulls render as "".
func Records(ds *core.Dataset) [][]string {
	out := make([][]string, 0, ds.Len()+1)
	out = append(out, append([]string(nil), ds.Columns...))
	for _, row := range ds.Rows {
		rec := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			rec[i] = row.Get(col).String()
		}
		out = append(out, rec)
	}
	return out
}

// WriteCSV writes ds as comma-separated text with a header row.
func WriteCSV(w io.Writer, ds *core.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Records(ds)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteReport writes the run's report document as indented JSON.
func WriteReport(w io.Writer, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReportDocument(run)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
