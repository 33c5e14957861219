package core

// dataset.go defines the in-memory table the pipeline operates on.
//
// A Dataset is an ordered list of rows over a uniform column set. Each cell is
// a Value: a small tagged scalar that is either null, a string, an integer, a
// float or a timestamp. Values are plain structs, so copying a Row map copies
// every cell and Clone produces a fully independent dataset.

import (
	"math"
	"strconv"
	"time"
)

// ValueKind identifies which field of a Value is set.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindTime
)

// String returns a short name for the kind, used in type-change logs.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// TimeLayout is the layout used to render timestamp values.
const TimeLayout = "2006-01-02"

// Value is a single cell. The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float value. NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindFloat, f: f}
}

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the value's kind.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Number returns v as a float64 when it is an Int or Float.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Int64 returns the integer payload and whether v is an Int.
func (v Value) Int64() (int64, bool) { return v.i, v.kind == KindInt }

// TimeValue returns the timestamp payload and whether v is a Time.
func (v Value) TimeValue() (time.Time, bool) { return v.t, v.kind == KindTime }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindTime:
		return v.t.Equal(o.t)
	}
	return false
}

// String renders the value as CSV text. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 {
			return v.t.Format(TimeLayout)
		}
		return v.t.Format(time.DateTime)
	default:
		return ""
	}
}

// Any returns the payload as a plain Go value (nil for null).
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// Row maps column names to values.
type Row map[string]Value

// Get returns the value for col, or null if the row does not hold it.
func (r Row) Get(col string) Value {
	return r[col]
}

// Clone copies the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered collection of rows with a uniform column set.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates an empty dataset with the given columns.
func NewDataset(columns ...string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols}
}

// Append adds a row built from values in column order. Missing trailing
// values are null.
func (d *Dataset) Append(values ...Value) {
	row := make(Row, len(d.Columns))
	for i, col := range d.Columns {
		if i < len(values) {
			row[col] = values[i]
		} else {
			row[col] = Null()
		}
	}
	d.Rows = append(d.Rows, row)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether col is part of the column set.
func (d *Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Column returns every value in col, in row order.
func (d *Dataset) Column(col string) []Value {
	out := make([]Value, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row.Get(col)
	}
	return out
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: make([]string, len(d.Columns)),
		Rows:    make([]Row, len(d.Rows)),
	}
	copy(out.Columns, d.Columns)
	for i, row := range d.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// withColumns returns a copy of the dataset whose column set includes cols.
func (d *Dataset) withColumns(cols ...string) *Dataset {
	out := d.Clone()
	for _, col := range cols {
		if !out.HasColumn(col) {
			out.Columns = append(out.Columns, col)
		}
	}
	return out
}

// Equal reports whether two datasets have the same columns and cell values.
func (d *Dataset) Equal(o *Dataset) bool {
	if len(d.Columns) != len(o.Columns) || len(d.Rows) != len(o.Rows) {
		return false
	}
	for i := range d.Columns {
		if d.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range d.Rows {
		for _, col := range d.Columns {
			if !d.Rows[i].Get(col).Equal(o.Rows[i].Get(col)) {
				return false
			}
		}
	}
	return true
}

// kindSummary counts value kinds per column. Used for type-change logging.
func (d *Dataset) kindSummary(col string) map[string]int {
	counts := make(map[string]int)
	for _, row := range d.Rows {
		counts[row.Get(col).Kind().String()]++
	}
	return counts
}
