package core

import (
	"math"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// Numeric Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "integer", input: "123", want: 123, wantOK: true},
		{name: "zero", input: "0", want: 0, wantOK: true},
		{name: "negative", input: "-456", want: -456, wantOK: true},
		{name: "decimal", input: "3.5", want: 3.5, wantOK: true},
		{name: "leading decimal point", input: ".99", want: 0.99, wantOK: true},
		{name: "trailing decimal point", input: "99.", want: 99, wantOK: true},
		{name: "dollar with thousands", input: "$1,234.56", want: 1234.56, wantOK: true},
		{name: "euro sign", input: "€12", want: 12, wantOK: true},
		{name: "accounting negative", input: "(12.50)", want: -12.5, wantOK: true},
		{name: "surrounding whitespace", input: "  4.0 ", want: 4, wantOK: true},

		{name: "empty", input: "", wantOK: false},
		{name: "error token", input: "ERROR", wantOK: false},
		{name: "unknown token", input: "UNKNOWN", wantOK: false},
		{name: "letters after digits", input: "12abc", wantOK: false},
		{name: "exponent", input: "1e5", wantOK: false},
		{name: "two decimal points", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{"3", 3, true},
		{"3.0", 3, true},
		{"$1,200", 1200, true},
		{"-7", -7, true},
		{"2.5", 0, false},
		{"-9223372036854775808", math.MinInt64, true},
		{"9223372036854775808", 0, false},
		{"-9223372036854777856", 0, false},
		{"invalid", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseInteger(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseInteger(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseInteger(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestToPgNumeric_Validity(t *testing.T) {
	for _, s := range []string{"1", "1.5", "$3", "(2)"} {
		if !ToPgNumeric(s).Valid {
			t.Errorf("ToPgNumeric(%q) invalid, want valid", s)
		}
	}
	for _, s := range []string{"", "  ", "abc", "$", "()"} {
		if ToPgNumeric(s).Valid {
			t.Errorf("ToPgNumeric(%q) valid, want invalid", s)
		}
	}
}

// ----------------------------------------------------------------------------
// Date Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{name: "iso date", input: "2023-09-08", want: time.Date(2023, 9, 8, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "slashed iso", input: "2023/09/08", want: time.Date(2023, 9, 8, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "us date", input: "9/8/2023", want: time.Date(2023, 9, 8, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "compact", input: "20230908", want: time.Date(2023, 9, 8, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "with time", input: "2023-09-08 14:30:00", want: time.Date(2023, 9, 8, 14, 30, 0, 0, time.UTC), wantOK: true},
		{name: "iso T separator", input: "2023-09-08T14:30:00", want: time.Date(2023, 9, 8, 14, 30, 0, 0, time.UTC), wantOK: true},
		{name: "month name", input: "Sep 8, 2023", want: time.Date(2023, 9, 8, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "trimmed", input: "  2023-01-01 ", want: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), wantOK: true},

		{name: "empty", input: "", wantOK: false},
		{name: "error token", input: "ERROR", wantOK: false},
		{name: "impossible day", input: "2023-02-30", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_TwoDigitYear(t *testing.T) {
	got, ok := ParseDate("1/2/06")
	if !ok {
		t.Fatal("ParseDate(1/2/06) failed")
	}
	if got.Year() != 2006 {
		t.Errorf("year = %d, want 2006", got.Year())
	}

	// Far enough in the future to cross the pivot.
	got, ok = ParseDate("1/2/99")
	if !ok {
		t.Fatal("ParseDate(1/2/99) failed")
	}
	if got.Year() != 1999 {
		t.Errorf("year = %d, want 1999", got.Year())
	}
}

// ----------------------------------------------------------------------------
// Bool and Cell Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"yes", true, true},
		{"1", true, true},
		{"f", false, true},
		{"No", false, true},
		{"0", false, true},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseBool(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Coffee  ", "Coffee"},
		{`="TXN_001"`, "TXN_001"},
		{"=42", "42"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
