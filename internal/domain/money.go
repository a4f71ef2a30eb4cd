// Package domain defines the canonical transaction shape and the monthly
// records derived from it.
package domain

import (
	"fmt"
	"strings"
)

// Money is an integer amount of minor currency units paired with an ISO
// currency code. Money is never represented as a float.
type Money struct {
	AmountMinor int64  `json:"amountMinor" yaml:"amountMinor"`
	Currency    string `json:"currency" yaml:"currency"`
}

// NewMoney builds a Money value with a normalized currency code.
func NewMoney(amountMinor int64, currency string) Money {
	return Money{AmountMinor: amountMinor, Currency: NormalizeCurrency(currency)}
}

// NormalizeCurrency upper-cases and trims an ISO currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.AmountMinor == 0
}

// Add returns m + other. Currencies must match unless one side is zero
// without a currency.
func (m Money) Add(other Money) (Money, error) {
	switch {
	case other.Currency == "" && other.AmountMinor == 0:
		return m, nil
	case m.Currency == "" && m.AmountMinor == 0:
		return other, nil
	case m.Currency != other.Currency:
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.AmountMinor, m.Currency)
}
