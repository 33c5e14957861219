package core

// transforms.go derives calendar columns from the transaction date. These run
// after remediation and only add columns; existing cells are never touched.

import (
	"fmt"
	"time"
)

// WeekdayEnricher adds the English day name of each row's date.
type WeekdayEnricher struct {
	DateColumn   string
	OutputColumn string
}

// Name implements Cleaner.
func (w WeekdayEnricher) Name() string { return "add_weekday" }

// Clean implements Cleaner.
func (w WeekdayEnricher) Clean(ds *Dataset) (*Dataset, error) {
	return deriveFromDate(ds, w.DateColumn, w.OutputColumn, func(t time.Time) string {
		return t.Weekday().String()
	})
}

// YearThirdEnricher labels each row with its four-month period of the year:
// T1 is January to April, T2 May to August, T3 September to December.
type YearThirdEnricher struct {
	DateColumn   string
	OutputColumn string
}

// Name implements Cleaner.
func (y YearThirdEnricher) Name() string { return "add_year_third" }

// Clean implements Cleaner.
func (y YearThirdEnricher) Clean(ds *Dataset) (*Dataset, error) {
	return deriveFromDate(ds, y.DateColumn, y.OutputColumn, YearThird)
}

// YearThird returns "T1", "T2" or "T3" for t's month.
func YearThird(t time.Time) string {
	return fmt.Sprintf("T%d", (int(t.Month())-1)/4+1)
}

// Enrichers returns the configured enrichment steps in application order.
func Enrichers(cfg TransformsConfig) []Cleaner {
	col := cfg.DateColumn
	if col == "" {
		col = DefaultDateColumn
	}

	var steps []Cleaner
	if cfg.Weekday {
		steps = append(steps, WeekdayEnricher{DateColumn: col, OutputColumn: WeekdayColumn})
	}
	if cfg.YearThird {
		steps = append(steps, YearThirdEnricher{DateColumn: col, OutputColumn: YearThirdColumn})
	}
	return steps
}

// deriveFromDate writes fn(date) into out for every row. String dates are
// parsed on the fly; nulls and unparseable cells produce null.
func deriveFromDate(ds *Dataset, dateCol, outCol string, fn func(time.Time) string) (*Dataset, error) {
	if !ds.HasColumn(dateCol) {
		return nil, fmt.Errorf("derive %q: %w %q", outCol, ErrMissingColumn, dateCol)
	}

	out := ds.withColumns(outCol)
	for _, row := range out.Rows {
		t, ok := dateOf(row.Get(dateCol))
		if !ok {
			row[outCol] = Null()
			continue
		}
		row[outCol] = String(fn(t))
	}
	return out, nil
}

func dateOf(v Value) (time.Time, bool) {
	if t, ok := v.TimeValue(); ok {
		return t, true
	}
	if s, ok := v.Str(); ok {
		return ParseDate(s)
	}
	return time.Time{}, false
}
