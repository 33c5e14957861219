package ingest

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/JonMunkholm/txclean/internal/logging"
	"github.com/xuri/excelize/v2"
)

func readString(t *testing.T, name, data string, opts ...Option) *core.Dataset {
	t.Helper()
	ds, err := NewReader(logging.Discard(), opts...).Read(context.Background(), Source{
		Name:   name,
		Reader: strings.NewReader(data),
		Size:   int64(len(data)),
	})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return ds
}

func cells(ds *core.Dataset, col string) []string {
	out := make([]string, 0, ds.Len())
	for _, v := range ds.Column(col) {
		if v.IsNull() {
			out = append(out, "<null>")
			continue
		}
		out = append(out, v.String())
	}
	return out
}

func TestReader_Delimiters(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"comma", "Transaction ID,Item\nTXN_1,Coffee\nTXN_2,Tea\n"},
		{"semicolon", "Transaction ID;Item\nTXN_1;Coffee\nTXN_2;Tea\n"},
		{"tab", "Transaction ID\tItem\nTXN_1\tCoffee\nTXN_2\tTea\n"},
		{"pipe", "Transaction ID|Item\nTXN_1|Coffee\nTXN_2|Tea\n"},
		{"crlf", "Transaction ID,Item\r\nTXN_1,Coffee\r\nTXN_2,Tea\r\n"},
		{"bom", "\xEF\xBB\xBFTransaction ID,Item\nTXN_1,Coffee\nTXN_2,Tea\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := readString(t, "sales.csv", tt.data)
			if want := []string{"Transaction ID", "Item"}; !reflect.DeepEqual(ds.Columns, want) {
				t.Fatalf("Columns = %q, want %q", ds.Columns, want)
			}
			if got := cells(ds, "Item"); !reflect.DeepEqual(got, []string{"Coffee", "Tea"}) {
				t.Errorf("Item = %v", got)
			}
		})
	}
}

func TestReader_NullTokensAndRawValues(t *testing.T) {
	data := "Transaction ID,Quantity,Total Spent,Location\n" +
		"TXN_1,2,,NA\n" +
		"TXN_2,ERROR,UNKNOWN,null\n" +
		"TXN_3, 3 ,N/A,In-store\n"

	ds := readString(t, "sales.csv", data)

	if got := cells(ds, "Quantity"); !reflect.DeepEqual(got, []string{"2", "ERROR", "3"}) {
		t.Errorf("Quantity = %v", got)
	}
	if got := cells(ds, "Total Spent"); !reflect.DeepEqual(got, []string{"<null>", "UNKNOWN", "<null>"}) {
		t.Errorf("Total Spent = %v", got)
	}
	if got := cells(ds, "Location"); !reflect.DeepEqual(got, []string{"<null>", "<null>", "In-store"}) {
		t.Errorf("Location = %v", got)
	}
}

func TestReader_CustomNullTokens(t *testing.T) {
	ds := readString(t, "s.csv", "A\n\nx\n-\n", WithNullTokens("", "-"))
	if got := cells(ds, "A"); !reflect.DeepEqual(got, []string{"x", "<null>"}) {
		t.Errorf("A = %v", got)
	}
}

func TestReader_HeaderNormalization(t *testing.T) {
	ds := readString(t, "s.csv", " Item ,,Item,\"Total Spent\"\na,b,c,d\n")
	want := []string{"Item", "Unnamed: 1", "Item.1", "Total Spent"}
	if !reflect.DeepEqual(ds.Columns, want) {
		t.Errorf("Columns = %q, want %q", ds.Columns, want)
	}
}

func TestReader_ShortRowsPadded(t *testing.T) {
	ds := readString(t, "s.csv", "A,B,C\n1\n1,2,3\n")
	if got := cells(ds, "C"); !reflect.DeepEqual(got, []string{"<null>", "3"}) {
		t.Errorf("C = %v", got)
	}
}

func TestReader_HeaderOnly(t *testing.T) {
	ds := readString(t, "s.csv", "Transaction ID,Item\n")
	if ds.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ds.Len())
	}
	if len(ds.Columns) != 2 {
		t.Errorf("Columns = %v", ds.Columns)
	}
}

func TestReader_Streamed(t *testing.T) {
	var b strings.Builder
	b.WriteString("Transaction ID,Item\n")
	for i := 0; i < 2500; i++ {
		b.WriteString("TXN,Coffee\n")
	}

	// Size 0 means unknown, which forces the streaming path.
	ds, err := NewReader(logging.Discard()).Read(context.Background(), Source{
		Name:   "big.csv",
		Reader: strings.NewReader(b.String()),
	})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if ds.Len() != 2500 {
		t.Errorf("Len() = %d, want 2500", ds.Len())
	}
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		opts    []Option
		wantErr error
	}{
		{
			name:    "empty input",
			src:     Source{Name: "a.csv", Reader: strings.NewReader("")},
			wantErr: ErrEmptyFile,
		},
		{
			name:    "declared size over limit",
			src:     Source{Name: "a.csv", Reader: strings.NewReader("A\n1\n"), Size: 1 << 20},
			opts:    []Option{WithMaxSize(1024)},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "actual size over limit",
			src:     Source{Name: "a.csv", Reader: strings.NewReader("A\n" + strings.Repeat("1234567890\n", 200))},
			opts:    []Option{WithMaxSize(64)},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "too many fields",
			src:     Source{Name: "a.csv", Reader: strings.NewReader("A,B\n1,2,3\n")},
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "unsupported extension",
			src:     Source{Name: "a.parquet", Reader: strings.NewReader("PAR1")},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "legacy xls",
			src:     Source{Name: "a.xls", Reader: bytes.NewReader([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})},
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(logging.Discard(), tt.opts...).Read(context.Background(), tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReader_NoReader(t *testing.T) {
	_, err := NewReader(logging.Discard()).Read(context.Background(), Source{Name: "a.csv"})
	if err == nil || core.MapError(err).Code != "FILE004" {
		t.Errorf("err = %v, want FILE004", err)
	}
}

func TestReader_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"Transaction ID", "Item", "Quantity", "Location"},
		{"TXN_1", "Coffee", 2, "Takeaway"},
		{"TXN_2", "Tea", "ERROR"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	// No extension: the zip signature selects the xlsx parser.
	ds, err := NewReader(logging.Discard()).Read(context.Background(), Source{
		Name:   "upload",
		Reader: &buf,
		Size:   int64(buf.Len()),
	})
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if want := []string{"Transaction ID", "Item", "Quantity", "Location"}; !reflect.DeepEqual(ds.Columns, want) {
		t.Fatalf("Columns = %q, want %q", ds.Columns, want)
	}
	if got := cells(ds, "Quantity"); !reflect.DeepEqual(got, []string{"2", "ERROR"}) {
		t.Errorf("Quantity = %v", got)
	}
	if got := cells(ds, "Location"); !reflect.DeepEqual(got, []string{"Takeaway", "<null>"}) {
		t.Errorf("Location = %v", got)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		head    []byte
		want    Format
		wantErr bool
	}{
		{"zip magic wins over extension", "data.csv", []byte("PK\x03\x04"), FormatXLSX, false},
		{"xlsx extension", "Book1.XLSX", nil, FormatXLSX, false},
		{"csv", "sales.csv", []byte("a,b"), FormatDelimited, false},
		{"tsv", "sales.tsv", []byte("a\tb"), FormatDelimited, false},
		{"no extension", "upload", []byte("a,b"), FormatDelimited, false},
		{"json", "sales.json", []byte("{"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.file, tt.head)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n", ';'},
		{"quoted commas ignored", "\"a,b,c\";d;e\n", ';'},
		{"first line only", "a|b\n1,2,3,4,5", '|'},
		{"single column", "Item\nCoffee\n", ','},
		{"empty", "", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffDelimiter([]byte(tt.sample)); got != tt.want {
				t.Errorf("SniffDelimiter(%q) = %q, want %q", tt.sample, got, tt.want)
			}
		})
	}
}
