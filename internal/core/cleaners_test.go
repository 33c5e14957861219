package core

import (
	"errors"
	"reflect"
	"testing"
)

func idsOf(ds *Dataset, col string) []string {
	out := make([]string, 0, ds.Len())
	for _, v := range ds.Column(col) {
		out = append(out, v.String())
	}
	return out
}

func TestDeduplicator(t *testing.T) {
	ds := NewDataset(ColTransactionID, ColItem)
	ds.Append(String("1"), String("a"))
	ds.Append(String("2"), String("b"))
	ds.Append(String("2"), String("c"))
	ds.Append(String("3"), String("d"))

	tests := []struct {
		keep      KeepPolicy
		wantIDs   []string
		wantItems []string
	}{
		{KeepFirst, []string{"1", "2", "3"}, []string{"a", "b", "d"}},
		{KeepLast, []string{"1", "2", "3"}, []string{"a", "c", "d"}},
		{KeepNone, []string{"1", "3"}, []string{"a", "d"}},
		{"", []string{"1", "2", "3"}, []string{"a", "b", "d"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.keep), func(t *testing.T) {
			out, err := Deduplicator{KeyColumn: ColTransactionID, Keep: tt.keep}.Clean(ds)
			if err != nil {
				t.Fatalf("Clean() error: %v", err)
			}
			if got := idsOf(out, ColTransactionID); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
			if got := idsOf(out, ColItem); !reflect.DeepEqual(got, tt.wantItems) {
				t.Errorf("items = %v, want %v", got, tt.wantItems)
			}
		})
	}

	if ds.Len() != 4 {
		t.Errorf("input modified: Len() = %d", ds.Len())
	}
}

func TestDeduplicator_MissingColumn(t *testing.T) {
	ds := NewDataset("Other")
	_, err := Deduplicator{KeyColumn: ColTransactionID}.Clean(ds)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestCategoryInferrer(t *testing.T) {
	ds := NewDataset(ColItem, ColCategory)
	ds.Append(String("Coffee"), Null())
	ds.Append(String("Cake"), String("bakery"))
	ds.Append(String("Muffin"), Null())
	ds.Append(Null(), Null())

	c := CategoryInferrer{
		CategoryColumn: ColCategory,
		ItemColumn:     ColItem,
		Default:        DefaultCategoryLabel,
		Lookup:         ItemToCategory,
	}
	out, err := c.Clean(ds)
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}

	want := []string{"drink", "bakery", "unknown", "unknown"}
	if got := idsOf(out, ColCategory); !reflect.DeepEqual(got, want) {
		t.Errorf("categories = %v, want %v", got, want)
	}
}

func TestCategoryInferrer_AddsColumn(t *testing.T) {
	ds := NewDataset("Product")
	ds.Append(String("Coffee"))
	ds.Append(String("Cake"))

	c := CategoryInferrer{
		CategoryColumn: "Product Category",
		ItemColumn:     "Product",
		Default:        DefaultCategoryLabel,
		Lookup:         ItemToCategory,
	}
	out, err := c.Clean(ds)
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if !out.HasColumn("Product Category") {
		t.Fatalf("Columns = %v, want Product Category added", out.Columns)
	}
	if got := idsOf(out, "Product Category"); !reflect.DeepEqual(got, []string{"drink", "food"}) {
		t.Errorf("categories = %v", got)
	}
	if ds.HasColumn("Product Category") {
		t.Error("input gained a column")
	}
}

func TestCategoryInferrer_MissingItemColumn(t *testing.T) {
	ds := NewDataset("Other")
	_, err := CategoryInferrer{CategoryColumn: ColCategory, ItemColumn: ColItem}.Clean(ds)
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestCriticalDropper(t *testing.T) {
	ds := NewDataset(ColTransactionID, ColItem, ColLocation)
	ds.Append(String("1"), String("Coffee"), Null())
	ds.Append(String("2"), Null(), String("Takeaway"))
	ds.Append(Null(), String("Tea"), String("In-store"))
	ds.Append(String("4"), String("Cake"), String("In-store"))

	out, err := CriticalDropper{Columns: []string{ColTransactionID, ColItem, ColTotalSpent}}.Clean(ds)
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if got := idsOf(out, ColTransactionID); !reflect.DeepEqual(got, []string{"1", "4"}) {
		t.Errorf("ids = %v, want [1 4]", got)
	}
}

func TestCriticalDropper_MissingTokens(t *testing.T) {
	ds := NewDataset(ColTransactionID, ColItem, ColLocation)
	ds.Append(String("1"), String("UNKNOWN"), String("In-store"))
	ds.Append(String("2"), String("ERROR"), String("Takeaway"))
	ds.Append(String("3"), Null(), String("In-store"))
	ds.Append(String("4"), String("Coffee"), String("ERROR"))

	out, err := CriticalDropper{Columns: []string{ColItem}, MissingTokens: DefaultMissingTokens()}.Clean(ds)
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if got := idsOf(out, ColTransactionID); !reflect.DeepEqual(got, []string{"4"}) {
		t.Errorf("ids = %v, want [4]", got)
	}
}

func TestNullFiller(t *testing.T) {
	ds := NewDataset(ColPaymentMethod, ColLocation, ColItem)
	ds.Append(Null(), Null(), Null())
	ds.Append(String("Cash"), Null(), String("Tea"))

	out, err := NullFiller{Columns: []string{ColPaymentMethod, ColLocation, "Absent"}, FillValue: DefaultFillValue}.Clean(ds)
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}

	if got := idsOf(out, ColPaymentMethod); !reflect.DeepEqual(got, []string{"UNKNOWN", "Cash"}) {
		t.Errorf("payment = %v", got)
	}
	if got := idsOf(out, ColLocation); !reflect.DeepEqual(got, []string{"UNKNOWN", "UNKNOWN"}) {
		t.Errorf("location = %v", got)
	}
	if !out.Rows[0].Get(ColItem).IsNull() {
		t.Error("column outside the fill list was filled")
	}
	if out.HasColumn("Absent") {
		t.Error("fill list added a column")
	}
}
