package core

import (
	"errors"
	"testing"
)

func amountRow(qty, price, total Value) *Dataset {
	ds := NewDataset(AmountColumns...)
	ds.Append(qty, price, total)
	return ds
}

func TestAmountImputer(t *testing.T) {
	tests := []struct {
		name      string
		qty       Value
		price     Value
		total     Value
		wantQty   Value
		wantPrice Value
		wantTotal Value
	}{
		{"total from quantity and price", Int(2), Float(5), Null(), Int(2), Float(5), Float(10)},
		{"quantity from total and price", Null(), Float(5), Float(20), Int(4), Float(5), Float(20)},
		{"price from total and quantity", Int(3), Null(), Float(15), Int(3), Float(5), Float(15)},
		{"zero quotient reset to missing", Null(), Float(5), Float(0), Null(), Float(5), Float(0)},
		{"division by zero left alone", Int(0), Null(), Float(10), Int(0), Null(), Float(10)},
		{"two gaps left alone", Null(), Null(), Float(10), Null(), Null(), Float(10)},
		{"fractional quantity cannot be stored", Null(), Float(4), Float(10), Null(), Float(4), Float(10)},
		{"complete row untouched", Int(2), Float(1.5), Float(3), Int(2), Float(1.5), Float(3)},
		{"raw token blocks derivation", String("ERROR"), Float(2), Null(), String("ERROR"), Float(2), Null()},
	}

	imp := AmountImputer{Schema: DefaultSchema()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := amountRow(tt.qty, tt.price, tt.total)
			out, err := imp.Clean(ds)
			if err != nil {
				t.Fatalf("Clean() error: %v", err)
			}
			row := out.Rows[0]
			check := func(col string, want Value) {
				if got := row.Get(col); !got.Equal(want) {
					t.Errorf("%s = %v (%v), want %v (%v)", col, got, got.Kind(), want, want.Kind())
				}
			}
			check(ColQuantity, tt.wantQty)
			check(ColPricePerUnit, tt.wantPrice)
			check(ColTotalSpent, tt.wantTotal)
		})
	}
}

func TestAmountImputer_MissingTokens(t *testing.T) {
	imp := AmountImputer{Schema: DefaultSchema(), MissingTokens: DefaultMissingTokens()}

	out, err := imp.Clean(amountRow(String("ERROR"), Float(2), Float(4)))
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if got := out.Rows[0].Get(ColQuantity); !got.Equal(Int(2)) {
		t.Errorf("quantity = %v, want 2", got)
	}

	out, err = imp.Clean(amountRow(Int(3), Float(1.5), String("UNKNOWN")))
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if got := out.Rows[0].Get(ColTotalSpent); !got.Equal(Float(4.5)) {
		t.Errorf("total = %v, want 4.5", got)
	}
}

func TestAmountImputer_DecimalProduct(t *testing.T) {
	out, err := AmountImputer{Schema: DefaultSchema()}.Clean(amountRow(Int(3), Float(1.1), Null()))
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if got := out.Rows[0].Get(ColTotalSpent); !got.Equal(Float(3.3)) {
		t.Errorf("total = %v, want 3.3", got)
	}
}

func TestAmountImputer_DoesNotMutateInput(t *testing.T) {
	ds := amountRow(Int(2), Float(5), Null())
	if _, err := (AmountImputer{Schema: DefaultSchema()}).Clean(ds); err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if !ds.Rows[0].Get(ColTotalSpent).IsNull() {
		t.Error("input row modified")
	}
}

func TestAmountImputer_MissingSchemaColumn(t *testing.T) {
	schema := DefaultSchema()
	delete(schema, ColPricePerUnit)

	_, err := AmountImputer{Schema: schema}.Clean(amountRow(Int(1), Float(1), Null()))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}
