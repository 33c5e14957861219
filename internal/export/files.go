package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// GeneratedDir is the subdirectory of the output directory that receives
// cleaned files.
const GeneratedDir = "generated"

// FileFormat selects the encoding of the cleaned dataset file.
type FileFormat string

const (
	FileCSV  FileFormat = "csv"
	FileXLSX FileFormat = "xlsx"
)

// FileExporter writes <dir>/generated/<name>_clean.<ext> and, unless
// disabled, <dir>/generated/<name>_report.json.
type FileExporter struct {
	dir    string
	format FileFormat
	report bool
	logger *slog.Logger
}

// FileOption configures a FileExporter.
type FileOption func(*FileExporter)

// WithFormat sets the dataset file format. The default is CSV.
func WithFormat(f FileFormat) FileOption {
	return func(e *FileExporter) { e.format = f }
}

// WithoutReport disables the JSON report file.
func WithoutReport() FileOption {
	return func(e *FileExporter) { e.report = false }
}

// NewFileExporter creates an exporter rooted at dir.
func NewFileExporter(dir string, logger *slog.Logger, opts ...FileOption) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &FileExporter{
		dir:    dir,
		format: FileCSV,
		report: true,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Exporter.
func (e *FileExporter) Name() string { return "files" }

// Paths returns the dataset and report paths for a source name.
func (e *FileExporter) Paths(source string) (dataPath, reportPath string) {
	base := baseName(source)
	out := filepath.Join(e.dir, GeneratedDir)
	return filepath.Join(out, base+"_clean."+string(e.format)),
		filepath.Join(out, base+"_report.json")
}

// Export implements Exporter.
func (e *FileExporter) Export(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataPath, reportPath := e.Paths(run.Source)
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	write := WriteCSV
	if e.format == FileXLSX {
		write = WriteXLSX
	}
	if err := writeFile(dataPath, func(w io.Writer) error { return write(w, run.Dataset) }); err != nil {
		return err
	}
	e.logger.Info("cleaned file written", "path", dataPath, "rows", run.Dataset.Len())

	if !e.report {
		return nil
	}
	if err := writeFile(reportPath, func(w io.Writer) error { return WriteReport(w, run) }); err != nil {
		return err
	}
	e.logger.Info("report written", "path", reportPath)
	return nil
}

// writeFile writes through a temp file renamed into place. A failed write
// leaves no file at path.
func writeFile(path string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// baseName strips directories and the extension from a source name.
func baseName(source string) string {
	base := filepath.Base(strings.ReplaceAll(source, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "dataset"
	}
	return base
}
