package ledger

import (
	"fmt"
	"strings"
)

// Currency is a closed set: every balance in a vault is denominated in
// the vault currency and no conversion ever happens inside the engine.
type Currency string

const (
	// EUR is currently the only supported currency.
	EUR Currency = "EUR"
)

// ParseCurrency validates a currency code against the closed set.
func ParseCurrency(code string) (Currency, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case string(EUR):
		return EUR, nil
	default:
		return "", fmt.Errorf("%w: unsupported currency %q", ErrCurrencyMismatch, code)
	}
}

// Exponent returns the number of minor-unit digits.
func (c Currency) Exponent() int {
	return 2
}

func (c Currency) String() string { return string(c) }
