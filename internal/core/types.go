// Package core provides the cleaning logic for transaction CSV data.
// This package has no I/O dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"sort"
	"strings"
)

// FieldType represents the declared data type for a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldFloat
	FieldDatetime
	FieldBool
)

// String returns the canonical token for the field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldText:
		return "string"
	case FieldInteger:
		return "integer"
	case FieldFloat:
		return "float"
	case FieldDatetime:
		return "datetime"
	case FieldBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ParseFieldType converts a declared type token to a FieldType.
// Accepts the canonical tokens plus the aliases found in older config files
// ("str", "int", "Int64", "Float64", "datetime64[ns]").
func ParseFieldType(token string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "string", "str", "text":
		return FieldText, nil
	case "integer", "int", "int64":
		return FieldInteger, nil
	case "float", "float64", "numeric":
		return FieldFloat, nil
	case "datetime", "datetime64[ns]", "date":
		return FieldDatetime, nil
	case "bool", "boolean":
		return FieldBool, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q", ErrInvalidType, token)
	}
}

// Schema maps column names to their declared type.
type Schema map[string]FieldType

// Columns returns the schema's column names sorted alphabetically.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s))
	for c := range s {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Clone returns an independent copy of the schema.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Well-known transaction columns.
const (
	ColTransactionID   = "Transaction ID"
	ColItem            = "Item"
	ColQuantity        = "Quantity"
	ColPricePerUnit    = "Price Per Unit"
	ColTotalSpent      = "Total Spent"
	ColPaymentMethod   = "Payment Method"
	ColLocation        = "Location"
	ColTransactionDate = "Transaction Date"
	ColCategory        = "Category"
)

// DefaultSchema returns the declared type table for transaction files.
func DefaultSchema() Schema {
	return Schema{
		ColTransactionID:   FieldText,
		ColItem:            FieldText,
		ColQuantity:        FieldInteger,
		ColPricePerUnit:    FieldFloat,
		ColTotalSpent:      FieldFloat,
		ColPaymentMethod:   FieldText,
		ColLocation:        FieldText,
		ColTransactionDate: FieldDatetime,
	}
}

// CriticalColumns lists the columns whose nulls cause row removal.
// They are never null-filled.
var CriticalColumns = []string{
	ColTransactionID,
	ColItem,
	ColQuantity,
	ColPricePerUnit,
	ColTotalSpent,
	ColTransactionDate,
}

// AmountColumns are the three columns of the total = quantity * price relation.
var AmountColumns = []string{ColQuantity, ColPricePerUnit, ColTotalSpent}

// ItemToCategory is the fixed item lookup used for category inference.
var ItemToCategory = map[string]string{
	"Coffee":   "drink",
	"Tea":      "drink",
	"Juice":    "drink",
	"Smoothie": "drink",
	"Cake":     "food",
	"Cookie":   "food",
	"Sandwich": "food",
	"Salad":    "food",
}

// ErrorKind classifies a data-quality defect found in a column.
type ErrorKind string

const (
	NullValues       ErrorKind = "NULL_VALUES"
	DuplicatedValues ErrorKind = "DUPLICATED_VALUES"
	TypeError        ErrorKind = "TYPE_ERROR"
)

// DatasetKey is the reserved report key used when the dataset has no rows.
const DatasetKey = "__dataset__"

// ErrorReport maps a column name to the defects found in it, in the order
// the validators reported them.
type ErrorReport map[string][]ErrorKind

// Add appends kind to the column's list unless it is already present.
func (r ErrorReport) Add(column string, kind ErrorKind) {
	if r.Has(column, kind) {
		return
	}
	r[column] = append(r[column], kind)
}

// Has reports whether column carries the given kind.
func (r ErrorReport) Has(column string, kind ErrorKind) bool {
	for _, k := range r[column] {
		if k == kind {
			return true
		}
	}
	return false
}

// HasAny reports whether column carries at least one of kinds.
func (r ErrorReport) HasAny(column string, kinds ...ErrorKind) bool {
	for _, k := range kinds {
		if r.Has(column, k) {
			return true
		}
	}
	return false
}

// Merge concatenates other's lists onto r.
func (r ErrorReport) Merge(other ErrorReport) {
	for col, kinds := range other {
		for _, k := range kinds {
			r.Add(col, k)
		}
	}
}

// Clone returns a copy of r that can be modified independently.
func (r ErrorReport) Clone() ErrorReport {
	out := make(ErrorReport, len(r))
	for col, kinds := range r {
		out[col] = append([]ErrorKind(nil), kinds...)
	}
	return out
}

// Columns returns the reported column names sorted alphabetically.
func (r ErrorReport) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// IsEmptyDataset reports whether r is the zero-row sentinel report.
func (r ErrorReport) IsEmptyDataset() bool {
	_, ok := r[DatasetKey]
	return ok && len(r) == 1
}

// Count returns how many columns carry kind.
func (r ErrorReport) Count(kind ErrorKind) int {
	n := 0
	for col := range r {
		if r.Has(col, kind) {
			n++
		}
	}
	return n
}

// emptyDatasetReport returns the sentinel report for a zero-row dataset.
func emptyDatasetReport() ErrorReport {
	return ErrorReport{DatasetKey: {NullValues}}
}
