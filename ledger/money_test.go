package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"0", 0},
		{"1", 100},
		{"12.50", 1250},
		{"12,50", 1250},
		{"0.05", 5},
		{"-3.20", -320},
		{"+7.1", 710},
		{" 42 ", 4200},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestParseAmountRejectsBadInput(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"abc",
		"1.2.3",
		"1,2,3",
		"1.234",   // more than two decimals
		"10,005",  // comma is a decimal separator, not a thousands separator
		"1e3",
		"99999999999999999999",
	} {
		_, err := ParseAmount(in)
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.50", FormatAmount(1250))
	assert.Equal(t, "-0.05", FormatAmount(-5))
	assert.Equal(t, "0.00", FormatAmount(0))
}

func TestCheckedArithmetic(t *testing.T) {
	// Normal path
	sum, err := Money(100).Add(50)
	require.NoError(t, err)
	assert.Equal(t, Money(150), sum)

	diff, err := Money(100).Sub(250)
	require.NoError(t, err)
	assert.Equal(t, Money(-150), diff)

	// Overflow surfaces as ErrInvalidAmount
	_, err = Money(math.MaxInt64).Add(1)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Money(math.MinInt64).Sub(1)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Money(math.MinInt64).Neg()
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("eur")
	require.NoError(t, err)
	assert.Equal(t, EUR, c)

	_, err = ParseCurrency("USD")
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}
