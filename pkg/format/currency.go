// Package format renders minor-unit Money amounts for display.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies and threeDecimalCurrencies override the default
// exponent of 2 for ISO 4217 codes whose minor unit differs.
var (
	zeroDecimalCurrencies = map[string]bool{
		"BIF": true, "CLP": true, "DJF": true, "GNF": true, "ISK": true,
		"JPY": true, "KMF": true, "KRW": true, "PYG": true, "RWF": true,
		"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
		"XPF": true,
	}
	threeDecimalCurrencies = map[string]bool{
		"BHD": true, "IQD": true, "JOD": true, "KWD": true, "LYD": true,
		"OMR": true, "TND": true,
	}
)

// MinorUnitExponent returns the number of decimal places of the currency's
// minor unit.
func MinorUnitExponent(currency string) int32 {
	code := strings.ToUpper(strings.TrimSpace(currency))
	switch {
	case zeroDecimalCurrencies[code]:
		return 0
	case threeDecimalCurrencies[code]:
		return 3
	default:
		return 2
	}
}

// Major converts an amount in minor units into an exact decimal in major units.
func Major(amountMinor int64, currency string) decimal.Decimal {
	return decimal.New(amountMinor, -MinorUnitExponent(currency))
}

// Money returns the amount with thousands separators followed by the
// currency code (e.g., "-1,234.56 USD").
func Money(amountMinor int64, currency string) string {
	return NumericMoney(amountMinor, currency) + " " + strings.ToUpper(currency)
}

// NumericMoney returns the amount without a currency code but with
// separators (e.g., "-1,234.56").
func NumericMoney(amountMinor int64, currency string) string {
	exp := MinorUnitExponent(currency)
	value := Major(amountMinor, currency)
	sign := ""
	if value.IsNegative() {
		sign = "-"
	}
	return sign + groupThousands(value.Abs().StringFixed(exp))
}

// Percent renders a ratio (0.25) as a percentage string ("25.0%").
func Percent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Shift(2).StringFixed(1) + "%"
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}

// ParseMajor converts a major-unit decimal string such as "1234.56" into
// minor units. Amounts finer than the currency's minor unit are rejected.
func ParseMajor(amount string, currency string) (int64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	if trimmed == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	minor := d.Shift(MinorUnitExponent(currency))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %q has more precision than %s allows", amount, currency)
	}
	if minor.Abs().GreaterThan(decimal.New(1, 18)) {
		return 0, fmt.Errorf("amount %q is out of range", amount)
	}
	return minor.IntPart(), nil
}
