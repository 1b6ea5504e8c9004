// Package money provides the fixed-point amount types used by the auditor.
// Currency amounts carry two fraction digits and tax rates four. Values are
// built from decimal literals or integer minor units only; there is no float
// constructor.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// AmountPlaces is the number of fraction digits of a currency amount.
	AmountPlaces = 2
	// RatePlaces is the number of fraction digits of a tax rate.
	RatePlaces = 4
)

// Money is an exact decimal currency amount.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// Tolerance is the fixed comparison tolerance for computed amounts.
var Tolerance = FromMinor(1)

// Parse reads a decimal literal such as "1160.00" or "-4.5".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinor builds an amount from integer minor units (cents).
func FromMinor(units int64) Money {
	return Money{d: decimal.New(units, -AmountPlaces)}
}

// FromInt builds an amount from whole currency units.
func FromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// FromDecimal wraps an exact decimal value.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// Cmp returns -1, 0 or +1 as m is less than, equal to or greater than o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }

// String renders the amount with exactly two fraction digits.
func (m Money) String() string { return m.d.StringFixed(AmountPlaces) }

// MarshalJSON renders the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number. Numbers
// are parsed from their text, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}
	m.d = d
	return nil
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
