package money

import "github.com/shopspring/decimal"

// Round2 rounds to two fraction digits, half to even.
func Round2(m Money) Money {
	return Money{d: m.d.RoundBank(AmountPlaces)}
}

// PercentOf returns round(amount * rate, 2).
func PercentOf(amount Money, rate Rate) Money {
	return Round2(Money{d: amount.d.Mul(rate.d)})
}

// EqualWithinTolerance reports whether |a - b| <= tolerance.
func EqualWithinTolerance(a, b, tolerance Money) bool {
	return a.Sub(b).Abs().Cmp(tolerance) <= 0
}

// Within is EqualWithinTolerance with the standard 0.01 tolerance.
func Within(a, b Money) bool {
	return EqualWithinTolerance(a, b, Tolerance)
}

// SafeDiv divides a by b rounded to places. A zero divisor yields zero.
func SafeDiv(a, b decimal.Decimal, places int32) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, places)
}

// Percent is a percentage kept to two fraction digits.
type Percent struct {
	d decimal.Decimal
}

func (p Percent) IsZero() bool { return p.d.IsZero() }

// String renders the percentage with exactly two fraction digits.
func (p Percent) String() string { return p.d.StringFixed(AmountPlaces) }

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Percentage returns part/whole*100 rounded to two places, zero when whole is zero.
func Percentage(part, whole int64) Percent {
	return Percent{d: SafeDiv(decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)), decimal.NewFromInt(whole), AmountPlaces)}
}
