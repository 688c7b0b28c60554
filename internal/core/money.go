// Package core provides money parsing and handling utilities.
//
// Amounts are kept in integer cents so that sums are exact; parsing and
// formatting go through shopspring/decimal.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts a dot (12.34) or a single comma (12,34) as the decimal
// separator. A comma must be followed by one or two digits, so grouped
// thousands such as "1,234" are rejected rather than misread. Text that is
// not a number yields ErrInvalidAmountFormat; a value that rounds to zero
// cents or below yields ErrNonPositiveAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("1,234")  -> 0, ErrInvalidAmountFormat
//	ParseDecimalToCents("-5")     -> 0, ErrNonPositiveAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmountFormat
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		frac := s[i+1:]
		if len(frac) == 0 || len(frac) > 2 || strings.ContainsAny(frac, ",.") || strings.Contains(s[:i], ".") {
			return 0, ErrInvalidAmountFormat
		}
		s = s[:i] + "." + frac
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmountFormat
	}
	cents := d.Shift(2).Round(0)
	// Prevent overflow of int64 cents
	if cents.GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, ErrInvalidAmountFormat
	}
	if cents.Sign() <= 0 {
		return 0, ErrNonPositiveAmount
	}
	return cents.IntPart(), nil
}

// Decimal returns the amount as a decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with exactly two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o. The result may be negative (savings).
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Percent returns m as a percentage of total. Zero total yields zero.
func (m Money) Percent(total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	pct := decimal.NewFromInt(m.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total.Cents), 4)
	return pct.InexactFloat64()
}
