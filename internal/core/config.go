package core

import (
	"fmt"
	"strings"
)

// KeepPolicy selects which duplicate survives deduplication.
type KeepPolicy string

const (
	KeepFirst KeepPolicy = "first"
	KeepLast  KeepPolicy = "last"
	KeepNone  KeepPolicy = "none" // drop every row whose key repeats
)

// Config controls which validators run and which remediation steps the
// dispatcher may apply. The zero value of every flag is "disabled"; use
// DefaultConfig for the documented defaults of the non-flag fields.
type Config struct {
	Validations ValidationsConfig
	Duplicates  DuplicatesConfig
	Types       TypesConfig
	Imputation  ImputationConfig
	Nulls       NullsConfig
	Transforms  TransformsConfig
}

// ValidationsConfig gates each validator.
type ValidationsConfig struct {
	ValidateNulls      bool
	ValidateDuplicates bool
	ValidateTypes      bool
}

// DuplicatesConfig controls duplicate detection and removal.
type DuplicatesConfig struct {
	Apply     bool
	Keep      KeepPolicy // default: first
	KeyColumn string     // default: Transaction ID
}

// TypesConfig controls schema coercion.
type TypesConfig struct {
	Apply  bool
	Schema Schema // default: DefaultSchema()
}

// ImputationConfig controls amount and category imputation.
type ImputationConfig struct {
	ApplyAmounts    bool
	ApplyCategory   bool
	CategoryColumn  string // default: Category
	ItemColumn      string // default: Item
	DefaultCategory string // default: unknown
}

// NullsConfig controls optional null filling of non-critical columns.
//
// MissingTokens are cell values that amount imputation and the critical drop
// treat as missing. A nil slice means DefaultMissingTokens; an empty one
// disables token matching.
type NullsConfig struct {
	Apply         bool
	Columns       []string
	FillValue     string   // default: UNKNOWN
	MissingTokens []string // default: ERROR, UNKNOWN
}

// TransformsConfig controls the enrichment columns added after cleaning.
type TransformsConfig struct {
	Weekday    bool
	YearThird  bool
	DateColumn string // default: Transaction Date
}

// Default values for non-flag settings.
const (
	DefaultFillValue      = "UNKNOWN"
	DefaultCategoryLabel  = "unknown"
	DefaultKeyColumn      = ColTransactionID
	DefaultCategoryColumn = ColCategory
	DefaultItemColumn     = ColItem
	DefaultDateColumn     = ColTransactionDate
	WeekdayColumn         = "Weekday"
	YearThirdColumn       = "Year third"
)

// DefaultMissingTokens returns the placeholder values dirty exports write in
// place of a real value.
func DefaultMissingTokens() []string {
	return []string{"ERROR", "UNKNOWN"}
}

// DefaultConfig returns a config with every feature disabled and every
// setting at its documented default.
func DefaultConfig() Config {
	return Config{
		Duplicates: DuplicatesConfig{Keep: KeepFirst, KeyColumn: DefaultKeyColumn},
		Types:      TypesConfig{Schema: DefaultSchema()},
		Imputation: ImputationConfig{
			CategoryColumn:  DefaultCategoryColumn,
			ItemColumn:      DefaultItemColumn,
			DefaultCategory: DefaultCategoryLabel,
		},
		Nulls:      NullsConfig{FillValue: DefaultFillValue, MissingTokens: DefaultMissingTokens()},
		Transforms: TransformsConfig{DateColumn: DefaultDateColumn},
	}
}

// withDefaults fills blank settings so a hand-built Config behaves like one
// returned by DefaultConfig.
func (c Config) withDefaults() Config {
	if c.Duplicates.Keep == "" {
		c.Duplicates.Keep = KeepFirst
	}
	if c.Duplicates.KeyColumn == "" {
		c.Duplicates.KeyColumn = DefaultKeyColumn
	}
	if c.Types.Schema == nil {
		c.Types.Schema = DefaultSchema()
	}
	if c.Imputation.CategoryColumn == "" {
		c.Imputation.CategoryColumn = DefaultCategoryColumn
	}
	if c.Imputation.ItemColumn == "" {
		c.Imputation.ItemColumn = DefaultItemColumn
	}
	if c.Imputation.DefaultCategory == "" {
		c.Imputation.DefaultCategory = DefaultCategoryLabel
	}
	if c.Nulls.FillValue == "" {
		c.Nulls.FillValue = DefaultFillValue
	}
	if c.Nulls.MissingTokens == nil {
		c.Nulls.MissingTokens = DefaultMissingTokens()
	}
	if c.Transforms.DateColumn == "" {
		c.Transforms.DateColumn = DefaultDateColumn
	}
	return c
}

// Validate checks the config for caller defects.
// Returns an error describing all failures.
func (c Config) Validate() error {
	var errs []string

	switch c.Duplicates.Keep {
	case "", KeepFirst, KeepLast, KeepNone:
	default:
		errs = append(errs, fmt.Sprintf("duplicates.keep (%q) must be one of: first, last, none", c.Duplicates.Keep))
	}

	for col, ft := range c.Types.Schema {
		if strings.TrimSpace(col) == "" {
			errs = append(errs, "types.schema contains a blank column name")
		}
		if ft < FieldText || ft > FieldBool {
			errs = append(errs, fmt.Sprintf("types.schema[%q] has an invalid type", col))
		}
	}

	for i, col := range c.Nulls.Columns {
		if strings.TrimSpace(col) == "" {
			errs = append(errs, fmt.Sprintf("nulls.columns[%d] is blank", i))
		}
	}

	for i, tok := range c.Nulls.MissingTokens {
		if strings.TrimSpace(tok) == "" {
			errs = append(errs, fmt.Sprintf("nulls.missing_tokens[%d] is blank", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}
