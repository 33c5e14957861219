package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/txclean/internal/config"
	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/JonMunkholm/txclean/internal/export"
	"github.com/JonMunkholm/txclean/internal/pipeline"
)

// healthTimeout bounds each dependency check on /health.
const healthTimeout = 2 * time.Second

// ValidateResponse is the body of POST /api/validate.
type ValidateResponse struct {
	RunID      string             `json:"run_id"`
	Source     string             `json:"source"`
	Rows       int                `json:"rows"`
	Columns    []string           `json:"columns"`
	Report     core.ReportSummary `json:"report"`
	DurationMS int64              `json:"duration_ms"`
}

// CleanResponse is the JSON body of POST /api/clean.
type CleanResponse struct {
	export.ReportDocument
	Skipped    bool       `json:"skipped"`
	DurationMS int64      `json:"duration_ms"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Runs *pipeline.LimiterStatus `json:"runs,omitempty"`
}

// handleValidate reads the uploaded file and returns its error report.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	src, closeSrc, err := s.readSource(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer closeSrc()

	res, err := s.orch.Validate(r.Context(), src)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, ValidateResponse{
		RunID:      res.RunID,
		Source:     res.Source,
		Rows:       res.RowsIn,
		Columns:    res.Dataset.Columns,
		Report:     core.Summarize(res.Report),
		DurationMS: res.Duration.Milliseconds(),
	})
}

// handleClean cleans the uploaded file. The cleaned data is returned as a
// JSON document by default, or as a file with ?format=csv or ?format=xlsx.
// ?rows=false omits the data rows from the JSON document.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "json", "csv", "xlsx":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format), "REQ001")
		return
	}

	src, closeSrc, err := s.readSource(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer closeSrc()

	res, err := s.orch.Run(r.Context(), src)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	switch format {
	case "csv":
		s.writeAttachment(w, r, res, "csv", "text/csv; charset=utf-8", export.WriteCSV)
	case "xlsx":
		s.writeAttachment(w, r, res, "xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
	default:
		s.writeCleanJSON(w, r, res)
	}
}

func (s *Server) writeCleanJSON(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	resp := CleanResponse{
		ReportDocument: export.NewReportDocument(export.Run{
			ID:       res.RunID,
			Source:   res.Source,
			Dataset:  res.Dataset,
			Report:   res.Report,
			Steps:    res.Steps,
			RowsIn:   res.RowsIn,
			Finished: time.Now().UTC(),
		}),
		Skipped:    res.Skipped,
		DurationMS: res.Duration.Milliseconds(),
		Columns:    res.Dataset.Columns,
	}
	if parseBoolParam(r, "rows", true) {
		resp.Rows = export.Records(res.Dataset)[1:]
	}
	writeJSON(w, resp)
}

func (s *Server) writeAttachment(w http.ResponseWriter, r *http.Request, res *pipeline.Result, ext, contentType string,
	write func(io.Writer, *core.Dataset) error) {
	base := strings.TrimSuffix(filepath.Base(res.Source), filepath.Ext(res.Source))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_clean.%s"`, base, ext))
	w.Header().Set("X-Run-ID", res.RunID)
	if err := write(w, res.Dataset); err != nil {
		// Headers are gone; all we can do is log.
		s.logger.Error("write cleaned file", "run_id", res.RunID, "path", r.URL.Path, "error", err)
	}
}

// handleConfig returns the effective cleaning config.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, config.Document(s.orch.Config()))
}

// handleStatus reports run slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp StatusResponse
	if l := s.orch.Limiter(); l != nil {
		st := l.Status()
		resp.Runs = &st
	}
	writeJSON(w, resp)
}

// handleHealth runs every registered dependency check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if len(s.health) > 0 {
		resp.Checks = make(map[string]string, len(s.health))
		for name, check := range s.health {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := check(ctx)
			cancel()

			if err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, resp)
}
