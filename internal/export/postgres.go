package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DB is the subset of *pgxpool.Pool the sink needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresSink bulk-loads cleaned rows into a table with COPY.
// The table is created on first use with one column per dataset column,
// typed from the schema, plus run_id and loaded_at.
type PostgresSink struct {
	db     DB
	table  pgx.Identifier
	logger *slog.Logger
}

// NewPostgresSink creates a sink writing to table, which may be
// schema-qualified ("staging.transactions_clean").
func NewPostgresSink(db DB, table string, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{
		db:     db,
		table:  pgx.Identifier(strings.Split(table, ".")),
		logger: logger,
	}
}

// Name implements Exporter.
func (s *PostgresSink) Name() string { return "postgres" }

// Export implements Exporter.
func (s *PostgresSink) Export(ctx context.Context, run Run) error {
	runID, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}

	cols := sqlColumns(run.Dataset.Columns)

	if _, err := s.db.Exec(ctx, createTableSQL(s.table, cols, run.Schema)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table.Sanitize(), err)
	}

	if run.Dataset.Len() == 0 {
		s.logger.Info("no rows to load", "table", s.table.Sanitize(), "run_id", run.ID)
		return nil
	}

	names := make([]string, 0, len(cols)+1)
	names = append(names, "run_id")
	for _, c := range cols {
		names = append(names, c.sql)
	}

	id := pgtype.UUID{Bytes: runID, Valid: true}
	nulled := 0

	start := time.Now()
	n, err := s.db.CopyFrom(ctx, s.table, names, pgx.CopyFromSlice(run.Dataset.Len(), func(i int) ([]any, error) {
		row := run.Dataset.Rows[i]
		vals := make([]any, 0, len(cols)+1)
		vals = append(vals, id)
		for _, c := range cols {
			v := row.Get(c.name)
			pv, ok := pgValue(v, columnType(run.Schema, c.name))
			if !ok {
				nulled++
			}
			vals = append(vals, pv)
		}
		return vals, nil
	}))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", s.table.Sanitize(), err)
	}

	if nulled > 0 {
		s.logger.Warn("values not representable in column type were loaded as null",
			"table", s.table.Sanitize(),
			"count", nulled,
		)
	}
	s.logger.Info("rows loaded",
		"table", s.table.Sanitize(),
		"run_id", run.ID,
		"rows", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

type sqlColumn struct {
	name string // dataset column
	sql  string // table column
}

// sqlColumns maps dataset column names to unique snake_case identifiers.
func sqlColumns(columns []string) []sqlColumn {
	seen := map[string]int{"run_id": 1, "loaded_at": 1}
	out := make([]sqlColumn, len(columns))
	for i, col := range columns {
		base := snakeCase(col)
		if base == "" {
			base = fmt.Sprintf("col_%d", i)
		}
		name := base
		n := seen[base]
		if n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
			seen[name]++
		}
		seen[base] = n + 1
		out[i] = sqlColumn{name: col, sql: name}
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out != "" && unicode.IsDigit(rune(out[0])) {
		out = "c_" + out
	}
	return out
}

func createTableSQL(table pgx.Identifier, cols []sqlColumn, schema core.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(table.Sanitize())
	b.WriteString(" (\n\trun_id uuid NOT NULL")
	for _, c := range cols {
		b.WriteString(",\n\t")
		b.WriteString(pgx.Identifier{c.sql}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(sqlType(columnType(schema, c.name)))
	}
	b.WriteString(",\n\tloaded_at timestamptz NOT NULL DEFAULT now()\n)")
	return b.String()
}

func sqlType(ft core.FieldType) string {
	switch ft {
	case core.FieldInteger:
		return "bigint"
	case core.FieldFloat:
		return "numeric"
	case core.FieldDatetime:
		return "timestamp"
	case core.FieldBool:
		return "boolean"
	default:
		return "text"
	}
}

// columnType returns the declared type of col. Undeclared columns are text.
func columnType(schema core.Schema, col string) core.FieldType {
	if ft, ok := schema[col]; ok {
		return ft
	}
	return core.FieldText
}

// pgValue converts a cell to the pgtype value for its column type.
// ok is false when a non-null cell could not be represented and is loaded as null.
func pgValue(v core.Value, ft core.FieldType) (any, bool) {
	if v.IsNull() {
		return nil, true
	}

	switch ft {
	case core.FieldInteger:
		if i, isInt := v.Int64(); isInt {
			return pgtype.Int8{Int64: i, Valid: true}, true
		}
		if i, parsed := core.ParseInteger(v.String()); parsed {
			return pgtype.Int8{Int64: i, Valid: true}, true
		}
		return nil, false

	case core.FieldFloat:
		n := core.ToPgNumeric(v.String())
		if !n.Valid {
			return nil, false
		}
		return n, true

	case core.FieldDatetime:
		if t, isTime := v.TimeValue(); isTime {
			return pgtype.Timestamp{Time: t, Valid: true}, true
		}
		if t, parsed := core.ParseDate(v.String()); parsed {
			return pgtype.Timestamp{Time: t, Valid: true}, true
		}
		return nil, false

	case core.FieldBool:
		b := core.ToPgBool(v.String())
		if !b.Valid {
			return nil, false
		}
		return b, true

	default:
		return pgtype.Text{String: v.String(), Valid: true}, true
	}
}
