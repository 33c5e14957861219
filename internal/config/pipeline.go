package config

// pipeline.go decodes the cleaning pipeline config file.
//
// The file is YAML (JSON is accepted too, being a YAML subset). Decoding is
// strict: an unknown key is an error, so a typo such as "validate_null" fails
// loudly instead of silently disabling a validator.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/txclean/internal/core"
	"gopkg.in/yaml.v3"
)

// PipelineDocument is the file form of core.Config. It is also the JSON
// shape served by the API and printed by the CLI.
type PipelineDocument struct {
	Validations ValidationsSection `yaml:"validations" json:"validations"`
	Duplicates  DuplicatesSection  `yaml:"duplicates" json:"duplicates"`
	Types       TypesSection       `yaml:"types" json:"types"`
	Imputation  ImputationSection  `yaml:"imputation" json:"imputation"`
	Nulls       NullsSection       `yaml:"nulls" json:"nulls"`
	Transforms  TransformsSection  `yaml:"transforms" json:"transforms"`
}

type ValidationsSection struct {
	ValidateNulls      bool `yaml:"validate_nulls" json:"validate_nulls"`
	ValidateDuplicates bool `yaml:"validate_duplicates" json:"validate_duplicates"`
	ValidateTypes      bool `yaml:"validate_types" json:"validate_types"`
}

type DuplicatesSection struct {
	Apply     bool   `yaml:"apply" json:"apply"`
	Keep      string `yaml:"keep" json:"keep"`
	KeyColumn string `yaml:"key_column" json:"key_column"`
}

type TypesSection struct {
	Apply  bool              `yaml:"apply" json:"apply"`
	Schema map[string]string `yaml:"schema" json:"schema"`
}

type ImputationSection struct {
	ApplyAmounts    bool   `yaml:"apply_amounts" json:"apply_amounts"`
	ApplyCategory   bool   `yaml:"apply_category" json:"apply_category"`
	CategoryColumn  string `yaml:"category_column" json:"category_column"`
	ItemColumn      string `yaml:"item_column" json:"item_column"`
	DefaultCategory string `yaml:"default_category" json:"default_category"`
}

type NullsSection struct {
	Apply         bool     `yaml:"apply" json:"apply"`
	Columns       []string `yaml:"columns" json:"columns"`
	FillValue     *string  `yaml:"fill_value" json:"fill_value"`
	MissingTokens []string `yaml:"missing_tokens" json:"missing_tokens"`
}

type TransformsSection struct {
	Weekday    bool   `yaml:"weekday" json:"weekday"`
	YearThird  bool   `yaml:"year_third" json:"year_third"`
	DateColumn string `yaml:"date_column" json:"date_column"`
}

// Document converts cfg to its file form with every setting spelled out.
func Document(cfg core.Config) PipelineDocument {
	schema := make(map[string]string, len(cfg.Types.Schema))
	for col, ft := range cfg.Types.Schema {
		schema[col] = ft.String()
	}
	fill := cfg.Nulls.FillValue

	return PipelineDocument{
		Validations: ValidationsSection{
			ValidateNulls:      cfg.Validations.ValidateNulls,
			ValidateDuplicates: cfg.Validations.ValidateDuplicates,
			ValidateTypes:      cfg.Validations.ValidateTypes,
		},
		Duplicates: DuplicatesSection{
			Apply:     cfg.Duplicates.Apply,
			Keep:      string(cfg.Duplicates.Keep),
			KeyColumn: cfg.Duplicates.KeyColumn,
		},
		Types: TypesSection{Apply: cfg.Types.Apply, Schema: schema},
		Imputation: ImputationSection{
			ApplyAmounts:    cfg.Imputation.ApplyAmounts,
			ApplyCategory:   cfg.Imputation.ApplyCategory,
			CategoryColumn:  cfg.Imputation.CategoryColumn,
			ItemColumn:      cfg.Imputation.ItemColumn,
			DefaultCategory: cfg.Imputation.DefaultCategory,
		},
		Nulls: NullsSection{
			Apply:         cfg.Nulls.Apply,
			Columns:       cfg.Nulls.Columns,
			FillValue:     &fill,
			MissingTokens: cfg.Nulls.MissingTokens,
		},
		Transforms: TransformsSection{
			Weekday:    cfg.Transforms.Weekday,
			YearThird:  cfg.Transforms.YearThird,
			DateColumn: cfg.Transforms.DateColumn,
		},
	}
}

// WritePipeline encodes cfg as a YAML pipeline file that ParsePipeline
// reads back to an equal config.
func WritePipeline(w io.Writer, cfg core.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document(cfg)); err != nil {
		return fmt.Errorf("encode pipeline config: %w", err)
	}
	return enc.Close()
}

// LoadPipeline reads the pipeline config at path.
// An empty path returns core.DefaultConfig().
func LoadPipeline(path string) (core.Config, error) {
	if path == "" {
		return core.DefaultConfig(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return core.Config{}, fmt.Errorf("open pipeline config: %w", err)
	}
	defer f.Close()

	cfg, err := ParsePipeline(f)
	if err != nil {
		return core.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParsePipeline decodes and validates a pipeline config. Settings the file
// omits keep their DefaultConfig values; an empty document yields defaults.
func ParsePipeline(r io.Reader) (core.Config, error) {
	var file PipelineDocument

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return core.Config{}, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}

	cfg, err := file.toCore()
	if err != nil {
		return core.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return core.Config{}, err
	}
	return cfg, nil
}

func (f *PipelineDocument) toCore() (core.Config, error) {
	cfg := core.DefaultConfig()
	var errs []string

	cfg.Validations = core.ValidationsConfig{
		ValidateNulls:      f.Validations.ValidateNulls,
		ValidateDuplicates: f.Validations.ValidateDuplicates,
		ValidateTypes:      f.Validations.ValidateTypes,
	}

	cfg.Duplicates.Apply = f.Duplicates.Apply
	if f.Duplicates.Keep != "" {
		cfg.Duplicates.Keep = core.KeepPolicy(strings.ToLower(f.Duplicates.Keep))
	}
	setIfPresent(&cfg.Duplicates.KeyColumn, f.Duplicates.KeyColumn)

	cfg.Types.Apply = f.Types.Apply
	if len(f.Types.Schema) > 0 {
		schema := make(core.Schema, len(f.Types.Schema))
		for col, token := range f.Types.Schema {
			ft, err := core.ParseFieldType(token)
			if err != nil {
				errs = append(errs, fmt.Sprintf("types.schema[%q]: %v", col, err))
				continue
			}
			schema[col] = ft
		}
		cfg.Types.Schema = schema
	}

	cfg.Imputation.ApplyAmounts = f.Imputation.ApplyAmounts
	cfg.Imputation.ApplyCategory = f.Imputation.ApplyCategory
	setIfPresent(&cfg.Imputation.CategoryColumn, f.Imputation.CategoryColumn)
	setIfPresent(&cfg.Imputation.ItemColumn, f.Imputation.ItemColumn)
	setIfPresent(&cfg.Imputation.DefaultCategory, f.Imputation.DefaultCategory)

	cfg.Nulls.Apply = f.Nulls.Apply
	cfg.Nulls.Columns = f.Nulls.Columns
	if f.Nulls.FillValue != nil {
		if strings.TrimSpace(*f.Nulls.FillValue) == "" && f.Nulls.Apply {
			errs = append(errs, "nulls.fill_value must not be blank when nulls.apply is set")
		}
		cfg.Nulls.FillValue = *f.Nulls.FillValue
	}
	// An explicit empty list turns token matching off.
	if f.Nulls.MissingTokens != nil {
		cfg.Nulls.MissingTokens = f.Nulls.MissingTokens
	}

	cfg.Transforms.Weekday = f.Transforms.Weekday
	cfg.Transforms.YearThird = f.Transforms.YearThird
	setIfPresent(&cfg.Transforms.DateColumn, f.Transforms.DateColumn)

	if len(errs) > 0 {
		return core.Config{}, fmt.Errorf("%w:\n  - %s", core.ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return cfg, nil
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
