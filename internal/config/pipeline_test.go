package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/txclean/internal/core"
)

const fullPipeline = `
validations:
  validate_nulls: true
  validate_duplicates: true
  validate_types: true
duplicates:
  apply: true
  keep: Last
types:
  apply: true
  schema:
    Quantity: Int64
    Price Per Unit: Float64
    Transaction Date: datetime64[ns]
imputation:
  apply_amounts: true
  apply_category: true
nulls:
  apply: true
  columns: [Payment Method, Location]
  fill_value: MISSING
transforms:
  weekday: true
`

func TestParsePipeline(t *testing.T) {
	cfg, err := ParsePipeline(strings.NewReader(fullPipeline))
	if err != nil {
		t.Fatalf("ParsePipeline() error = %v", err)
	}

	if !cfg.Validations.ValidateNulls || !cfg.Validations.ValidateDuplicates || !cfg.Validations.ValidateTypes {
		t.Errorf("Validations = %+v, want all enabled", cfg.Validations)
	}
	if cfg.Duplicates.Keep != core.KeepLast {
		t.Errorf("Duplicates.Keep = %q, want last", cfg.Duplicates.Keep)
	}
	if cfg.Duplicates.KeyColumn != core.DefaultKeyColumn {
		t.Errorf("Duplicates.KeyColumn = %q, want default", cfg.Duplicates.KeyColumn)
	}
	if got := cfg.Types.Schema[core.ColQuantity]; got != core.FieldInteger {
		t.Errorf("schema[Quantity] = %v, want integer", got)
	}
	if len(cfg.Types.Schema) != 3 {
		t.Errorf("schema has %d columns, want 3", len(cfg.Types.Schema))
	}
	if cfg.Nulls.FillValue != "MISSING" {
		t.Errorf("Nulls.FillValue = %q, want MISSING", cfg.Nulls.FillValue)
	}
	if len(cfg.Nulls.Columns) != 2 {
		t.Errorf("Nulls.Columns = %v", cfg.Nulls.Columns)
	}
	if !cfg.Transforms.Weekday || cfg.Transforms.YearThird {
		t.Errorf("Transforms = %+v", cfg.Transforms)
	}
	if cfg.Imputation.DefaultCategory != core.DefaultCategoryLabel {
		t.Errorf("DefaultCategory = %q, want default", cfg.Imputation.DefaultCategory)
	}
}

func TestParsePipeline_Empty(t *testing.T) {
	cfg, err := ParsePipeline(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParsePipeline() error = %v", err)
	}
	if cfg.Validations.ValidateNulls || cfg.Duplicates.Apply || cfg.Types.Apply {
		t.Error("empty document should leave every flag disabled")
	}
	if cfg.Nulls.FillValue != core.DefaultFillValue {
		t.Errorf("FillValue = %q, want default", cfg.Nulls.FillValue)
	}
	if !reflect.DeepEqual(cfg.Nulls.MissingTokens, core.DefaultMissingTokens()) {
		t.Errorf("MissingTokens = %v, want default", cfg.Nulls.MissingTokens)
	}
}

func TestParsePipeline_MissingTokens(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"custom list", "nulls:\n  missing_tokens: [N/A, \"?\"]\n", []string{"N/A", "?"}},
		{"empty list disables matching", "nulls:\n  missing_tokens: []\n", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParsePipeline(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("ParsePipeline() error = %v", err)
			}
			if !reflect.DeepEqual(cfg.Nulls.MissingTokens, tt.want) {
				t.Errorf("MissingTokens = %#v, want %#v", cfg.Nulls.MissingTokens, tt.want)
			}
		})
	}
}

func TestParsePipeline_JSON(t *testing.T) {
	cfg, err := ParsePipeline(strings.NewReader(`{"duplicates": {"apply": true, "keep": "none"}}`))
	if err != nil {
		t.Fatalf("ParsePipeline() error = %v", err)
	}
	if !cfg.Duplicates.Apply || cfg.Duplicates.Keep != core.KeepNone {
		t.Errorf("Duplicates = %+v", cfg.Duplicates)
	}
}

func TestParsePipeline_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown key",
			doc:     "validations:\n  validate_null: true\n",
			wantErr: core.ErrInvalidConfig,
			wantMsg: "validate_null",
		},
		{
			name:    "unknown type token",
			doc:     "types:\n  schema:\n    Quantity: money\n",
			wantErr: core.ErrInvalidConfig,
			wantMsg: "money",
		},
		{
			name:    "bad keep policy",
			doc:     "duplicates:\n  keep: middle\n",
			wantErr: core.ErrInvalidConfig,
			wantMsg: "duplicates.keep",
		},
		{
			name:    "blank fill value",
			doc:     "nulls:\n  apply: true\n  fill_value: \"\"\n",
			wantErr: core.ErrInvalidConfig,
			wantMsg: "fill_value",
		},
		{
			name:    "wrong value type",
			doc:     "nulls:\n  apply: sometimes\n",
			wantErr: core.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipeline(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadPipeline(t *testing.T) {
	cfg, err := LoadPipeline("")
	if err != nil {
		t.Fatalf("LoadPipeline(\"\") error = %v", err)
	}
	if cfg.Duplicates.KeyColumn != core.DefaultKeyColumn {
		t.Errorf("KeyColumn = %q, want default", cfg.Duplicates.KeyColumn)
	}

	path := filepath.Join(t.TempDir(), "clean.yaml")
	if err := os.WriteFile(path, []byte(fullPipeline), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if !cfg.Imputation.ApplyAmounts {
		t.Error("ApplyAmounts = false, want true")
	}

	if _, err := LoadPipeline(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadPipeline() expected error for missing file")
	}
}

func TestWritePipeline_RoundTrip(t *testing.T) {
	cfg, err := ParsePipeline(strings.NewReader(fullPipeline))
	if err != nil {
		t.Fatalf("ParsePipeline() error = %v", err)
	}

	var buf strings.Builder
	if err := WritePipeline(&buf, cfg); err != nil {
		t.Fatalf("WritePipeline() error = %v", err)
	}

	back, err := ParsePipeline(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("re-parse error = %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(back, cfg) {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", back, cfg)
	}
}

func TestDocument(t *testing.T) {
	doc := Document(core.DefaultConfig())

	if doc.Duplicates.Keep != string(core.KeepFirst) {
		t.Errorf("Keep = %q, want %q", doc.Duplicates.Keep, core.KeepFirst)
	}
	if got := doc.Types.Schema[core.ColQuantity]; got != "integer" {
		t.Errorf("Schema[Quantity] = %q, want integer", got)
	}
	if doc.Nulls.FillValue == nil || *doc.Nulls.FillValue != core.DefaultFillValue {
		t.Errorf("FillValue = %v, want %q", doc.Nulls.FillValue, core.DefaultFillValue)
	}
}
