package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is a tax rate expressed as a fraction, e.g. 0.1600 for 16%.
type Rate struct {
	d decimal.Decimal
}

// ParseRate reads a decimal rate literal such as "0.16".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("parsing rate %q: %w", s, err)
	}
	return Rate{d: d}, nil
}

// MustParseRate is ParseRate for literals known to be valid.
func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rate) Decimal() decimal.Decimal { return r.d }
func (r Rate) IsZero() bool             { return r.d.IsZero() }
func (r Rate) IsNegative() bool         { return r.d.IsNegative() }
func (r Rate) Equal(o Rate) bool        { return r.d.Equal(o.d) }

// String renders the rate with four fraction digits.
func (r Rate) String() string { return r.d.StringFixed(RatePlaces) }

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("parsing rate: %w", err)
	}
	r.d = d
	return nil
}
