package core

// impute.go fills missing amounts from the relation total = quantity * price.
//
// Per row, in fixed priority:
//  1. total missing, quantity and price present: total = quantity * price
//  2. quantity missing: quantity = total / price
//  3. price missing: price = total / quantity
//
// A derived quotient of zero is reset to missing: a zero quantity or price is
// meaningless for a completed transaction and would hide a true gap. Rows
// with two or more gaps are left as they are. Division by zero is never
// attempted; such rows are left as they are too. A cell holding one of
// MissingTokens counts as a gap.

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// divisionPrecision bounds the decimal places kept for derived quotients.
const divisionPrecision = 10

// AmountImputer solves the amount relation row by row.
type AmountImputer struct {
	Schema        Schema
	MissingTokens []string
}

// Name implements Cleaner.
func (a AmountImputer) Name() string { return "impute_amounts" }

// Clean implements Cleaner.
// Returns ErrMissingColumn if the schema does not declare all three columns.
func (a AmountImputer) Clean(ds *Dataset) (*Dataset, error) {
	for _, col := range AmountColumns {
		if _, ok := a.Schema[col]; !ok {
			return nil, fmt.Errorf("impute amounts: %w %q", ErrMissingColumn, col)
		}
	}

	out := ds.withColumns(AmountColumns...)
	for _, row := range out.Rows {
		a.imputeRow(row)
	}
	return out, nil
}

// amount is one side of the relation as seen by the solver.
type amount struct {
	value   decimal.Decimal
	missing bool
	usable  bool // present and numeric
}

func readAmount(v Value, tokens []string) amount {
	if isMissing(v, tokens) {
		return amount{missing: true}
	}
	f, ok := v.Number()
	if !ok {
		return amount{}
	}
	return amount{value: decimal.NewFromFloat(f), usable: true}
}

func (a AmountImputer) imputeRow(row Row) {
	qty := readAmount(row.Get(ColQuantity), a.MissingTokens)
	price := readAmount(row.Get(ColPricePerUnit), a.MissingTokens)
	total := readAmount(row.Get(ColTotalSpent), a.MissingTokens)

	switch {
	case total.missing && qty.usable && price.usable:
		row[ColTotalSpent] = a.store(ColTotalSpent, qty.value.Mul(price.value))

	case qty.missing:
		if total.usable && price.usable && !price.value.IsZero() {
			row[ColQuantity] = a.storeQuotient(ColQuantity, total.value.DivRound(price.value, divisionPrecision))
		}

	case price.missing:
		if total.usable && qty.usable && !qty.value.IsZero() {
			row[ColPricePerUnit] = a.storeQuotient(ColPricePerUnit, total.value.DivRound(qty.value, divisionPrecision))
		}
	}
}

// storeQuotient applies the zero reset to a derived quotient.
func (a AmountImputer) storeQuotient(col string, d decimal.Decimal) Value {
	if d.IsZero() {
		return Null()
	}
	return a.store(col, d)
}

// store converts d to a Value matching the column's declared type. A value
// that is not whole cannot be stored in an integer column and stays missing.
func (a AmountImputer) store(col string, d decimal.Decimal) Value {
	if a.Schema[col] == FieldInteger {
		if !d.Equal(d.Truncate(0)) {
			return Null()
		}
		return Int(d.IntPart())
	}
	return Float(d.InexactFloat64())
}
