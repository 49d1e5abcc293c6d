/*
money.go - Monetary amounts in integer minor units

PURPOSE:
  All balances and leg amounts are stored as int64 minor units (cents).
  Floating point never touches money. Arithmetic is checked: an overflow
  surfaces as an error instead of silently wrapping.

PARSING:
  User input arrives as a decimal string ("12.50", "12,50"). Parsing
  accepts '.' or ',' as the decimal separator, at most two fraction
  digits, and an optional leading sign. Everything else is rejected.

SEE ALSO:
  - currency.go: Currency enum and minor-unit exponent
  - flows.go: Cap checks built on these amounts
*/
package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed amount in minor units of the vault currency.
type Money int64

var (
	maxMoney = decimal.NewFromInt(math.MaxInt64)
	minMoney = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount parses a decimal string into minor units.
// Accepts '.' or ',' as separator and at most two fraction digits.
func ParseAmount(s string) (Money, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	normalized := strings.ReplaceAll(trimmed, ",", ".")
	if strings.Count(normalized, ".") > 1 || strings.ContainsAny(normalized, "eE") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q has more than two decimal digits", ErrInvalidAmount, s)
	}

	shifted := d.Shift(2)
	if shifted.Cmp(maxMoney) > 0 || shifted.Cmp(minMoney) < 0 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return Money(shifted.IntPart()), nil
}

// FormatAmount renders minor units as a major-unit string with two decimals.
func FormatAmount(m Money) string {
	return decimal.New(int64(m), -2).StringFixed(2)
}

// Add returns m+o, failing on int64 overflow.
func (m Money) Add(o Money) (Money, error) {
	sum := m + o
	if (o > 0 && sum < m) || (o < 0 && sum > m) {
		return 0, fmt.Errorf("%w: amount overflow", ErrInvalidAmount)
	}
	return sum, nil
}

// Sub returns m-o, failing on int64 overflow.
func (m Money) Sub(o Money) (Money, error) {
	if o == math.MinInt64 {
		return 0, fmt.Errorf("%w: amount overflow", ErrInvalidAmount)
	}
	return m.Add(-o)
}

// Neg returns -m, failing on int64 overflow.
func (m Money) Neg() (Money, error) {
	if m == math.MinInt64 {
		return 0, fmt.Errorf("%w: amount overflow", ErrInvalidAmount)
	}
	return -m, nil
}

// Abs returns the absolute value. MinInt64 has no positive counterpart
// and is returned unchanged; ParseAmount never produces it.
func (m Money) Abs() Money {
	if m < 0 && m != math.MinInt64 {
		return -m
	}
	return m
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

// String implements fmt.Stringer using the major-unit rendering.
func (m Money) String() string { return FormatAmount(m) }
