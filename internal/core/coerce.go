package core

// coerce.go casts columns to their declared schema types.
//
// Strict targets (integer, float, datetime) turn unparsable values into null.
// Lenient targets (text, bool) attempt a direct cast and keep the original
// value when the cast fails; validation has already flagged those columns, so
// coercion does not re-raise.

import (
	"log/slog"
	"math"
)

// castValue converts v to the declared type.
// ok is false when a strict cast failed and the result is null.
func castValue(v Value, ft FieldType) (out Value, ok bool) {
	if v.IsNull() {
		return v, true
	}

	switch ft {
	case FieldInteger:
		switch v.Kind() {
		case KindInt:
			return v, true
		case KindFloat:
			f, _ := v.Number()
			if i, whole := wholeNumber(f); whole {
				return Int(i), true
			}
			return Null(), false
		case KindString:
			s, _ := v.Str()
			if i, parsed := ParseInteger(s); parsed {
				return Int(i), true
			}
		}
		return Null(), false

	case FieldFloat:
		switch v.Kind() {
		case KindFloat:
			return v, true
		case KindInt:
			f, _ := v.Number()
			return Float(f), true
		case KindString:
			s, _ := v.Str()
			if f, parsed := ParseNumber(s); parsed {
				return Float(f), true
			}
		}
		return Null(), false

	case FieldDatetime:
		switch v.Kind() {
		case KindTime:
			return v, true
		case KindString:
			s, _ := v.Str()
			if t, parsed := ParseDate(s); parsed {
				return Time(t), true
			}
		}
		return Null(), false

	case FieldBool:
		if s, isStr := v.Str(); isStr {
			if b, parsed := ParseBool(s); parsed {
				if b {
					return String("true"), true
				}
				return String("false"), true
			}
		}
		return v, true

	default:
		if v.Kind() == KindString {
			return v, true
		}
		return String(v.String()), true
	}
}

// wholeNumber reports whether f is integral and returns it as int64.
func wholeNumber(f float64) (int64, bool) {
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	i := int64(f)
	if float64(i) != f {
		return 0, false
	}
	return i, true
}

// probeValue reports whether casting v to ft would lose a non-null value.
func probeValue(v Value, ft FieldType) bool {
	if v.IsNull() {
		return true
	}
	_, ok := castValue(v, ft)
	return ok
}

// SchemaCoercer casts every schema column present in the dataset.
type SchemaCoercer struct {
	Schema Schema
	Logger *slog.Logger
}

// Name implements Cleaner.
func (c SchemaCoercer) Name() string { return "coerce_types" }

// Clean implements Cleaner.
func (c SchemaCoercer) Clean(ds *Dataset) (*Dataset, error) {
	out := ds.Clone()

	for _, col := range c.Schema.Columns() {
		if !out.HasColumn(col) {
			continue
		}
		ft := c.Schema[col]
		before := ds.kindSummary(col)

		lost := 0
		for _, row := range out.Rows {
			v, ok := castValue(row.Get(col), ft)
			if !ok {
				lost++
			}
			row[col] = v
		}

		if c.Logger != nil {
			c.Logger.Debug("column type change",
				"column", col,
				"declared", ft.String(),
				"from", before,
				"to", out.kindSummary(col),
				"nulled", lost,
			)
		}
	}

	return out, nil
}
