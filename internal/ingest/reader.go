// Package ingest turns uploaded transaction files into core datasets.
//
// Delimited text (comma, semicolon, tab or pipe) and .xlsx workbooks are
// supported. Every cell is read as a string; typing is left to the cleaning
// pipeline so that validation sees the raw tokens. Cells matching a null
// token ("", "NA", "NULL", ...) become null.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/txclean/internal/core"
)

// Input errors. Messages match the patterns in core.MapError.
var (
	ErrFileTooLarge      = errors.New("file too large")
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidCSV        = errors.New("invalid csv")
)

// DefaultMaxFileSize is the input size limit when none is configured (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// streamThreshold is the declared size above which delimited input is parsed
// record by record instead of with a single ReadAll.
const streamThreshold int64 = 4 * 1024 * 1024

// ctxCheckInterval is how many records are parsed between context checks.
const ctxCheckInterval = 1000

// DefaultNullTokens are the cell values read as null. They match the tokens
// common spreadsheet and dataframe tools write for missing values.
var DefaultNullTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Format identifies the input file type.
type Format string

const (
	FormatDelimited Format = "delimited"
	FormatXLSX      Format = "xlsx"
)

// Source is one input file.
type Source struct {
	Name   string    // file name; the extension informs format detection
	Reader io.Reader // file contents
	Size   int64     // declared size in bytes, 0 if unknown
}

// Reader parses sources into datasets.
type Reader struct {
	maxSize    int64
	nullTokens map[string]struct{}
	logger     *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxSize sets the input size limit in bytes.
func WithMaxSize(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// WithNullTokens replaces the null token list.
func WithNullTokens(tokens ...string) Option {
	return func(r *Reader) {
		r.nullTokens = tokenSet(tokens)
	}
}

// NewReader creates a Reader. A nil logger falls back to slog.Default().
func NewReader(logger *slog.Logger, opts ...Option) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reader{
		maxSize:    DefaultMaxFileSize,
		nullTokens: tokenSet(DefaultNullTokens),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Read parses src into a dataset of string and null cells.
func (r *Reader) Read(ctx context.Context, src Source) (*core.Dataset, error) {
	if src.Reader == nil {
		return nil, fmt.Errorf("%s: no file provided", src.Name)
	}
	if src.Size > r.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, src.Name, src.Size, r.maxSize)
	}

	br := bufio.NewReader(src.Reader)
	head, _ := br.Peek(8)

	format, err := DetectFormat(src.Name, head)
	if err != nil {
		return nil, err
	}

	var ds *core.Dataset
	switch format {
	case FormatXLSX:
		ds, err = r.readXLSX(br)
	default:
		ds, err = r.readDelimited(ctx, br, src.Size)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name, err)
	}

	r.logger.Debug("input read",
		"source", src.Name,
		"format", string(format),
		"columns", len(ds.Columns),
		"rows", ds.Len(),
	)
	return ds, nil
}

// DetectFormat picks the parser from the file's leading bytes, falling back
// to its extension. Legacy .xls and other binary formats are rejected.
func DetectFormat(name string, head []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return "", fmt.Errorf("%w: legacy .xls workbooks are not supported", ErrUnsupportedFormat)
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return FormatXLSX, nil
	case "", ".csv", ".tsv", ".txt", ".psv":
		return FormatDelimited, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func (r *Reader) readDelimited(ctx context.Context, br *bufio.Reader, size int64) (*core.Dataset, error) {
	in, limited := wrapInput(br, r.maxSize)
	sniffed := bufio.NewReader(in)

	sample, _ := sniffed.Peek(sniffSampleSize)
	delim := SniffDelimiter(sample)

	cr := csv.NewReader(sniffed)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	b := newBuilder(header, r.nullTokens)

	if size > 0 && size <= streamThreshold {
		records, err := cr.ReadAll()
		if err != nil {
			return nil, wrapCSVError(err)
		}
		for i, rec := range records {
			if err := b.add(rec, i+2); err != nil {
				return nil, err
			}
		}
	} else {
		for line := 2; ; line++ {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, wrapCSVError(err)
			}
			if err := b.add(rec, line); err != nil {
				return nil, err
			}
			if line%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
		}
	}

	r.logger.Debug("delimited input parsed",
		"delimiter", strconv.QuoteRune(delim),
		"bytes", limited.BytesRead(),
		"streamed", size == 0 || size > streamThreshold,
	)
	return b.ds, nil
}

func wrapCSVError(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return err
	}
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, perr.Line, perr.Err)
	}
	return err
}

// builder accumulates records into a dataset.
type builder struct {
	ds         *core.Dataset
	nullTokens map[string]struct{}
}

func newBuilder(header []string, nullTokens map[string]struct{}) *builder {
	return &builder{
		ds:         core.NewDataset(normalizeHeader(header)...),
		nullTokens: nullTokens,
	}
}

// add appends one record. Short records are padded with nulls; blank lines
// are skipped; records with more fields than the header are rejected.
func (b *builder) add(rec []string, line int) error {
	if blankRecord(rec) {
		return nil
	}
	if len(rec) > len(b.ds.Columns) {
		return fmt.Errorf("%w: line %d has %d fields, header has %d", ErrInvalidCSV, line, len(rec), len(b.ds.Columns))
	}

	values := make([]core.Value, len(rec))
	for i, cell := range rec {
		values[i] = b.cell(cell)
	}
	b.ds.Append(values...)
	return nil
}

func (b *builder) cell(raw string) core.Value {
	s := core.CleanCell(raw)
	if _, isNull := b.nullTokens[s]; isNull {
		return core.Null()
	}
	return core.String(s)
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader trims header names, names blank ones "Unnamed: N" and
// suffixes repeats with ".1", ".2", ... so every column name is unique.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := core.CleanCell(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}
