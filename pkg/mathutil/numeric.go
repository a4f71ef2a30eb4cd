// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/bertsdev33/himata-sub000/pkg/constants"
)

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.FloatTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// AbsInt64 returns |v|.
func AbsInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// MinInt64 returns the minimum of two int64 values
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// MaxInt64 returns the maximum of two int64 values
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// DivRound divides num by den rounding half away from zero. den must be non-zero.
func DivRound(num, den int64) int64 {
	if den < 0 {
		num, den = -num, -den
	}
	q := num / den
	r := num % den
	if 2*AbsInt64(r) >= den {
		if num < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

// RoundToInt64 rounds a float half away from zero.
func RoundToInt64(val float64) int64 {
	return int64(math.Round(val))
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
