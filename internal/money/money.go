// Package money converts user-entered major-unit amounts into stored minor units.
//
// Amounts arrive as decimals (JSON numbers or numeric strings) and are kept
// exact until the final rounding step, so 1.005 becomes 101 cents rather than
// 100 as binary floating point would give.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places in a major unit.
const MinorUnitExponent = 2

var (
	// ErrNotPositive is returned for zero, negative, or sub-cent amounts.
	ErrNotPositive = errors.New("amount must be positive")
	// ErrTooLarge is returned when the minor-unit value does not fit in int64.
	ErrTooLarge = errors.New("amount is too large")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// maxMajorDigits is the integer digit count of math.MaxInt64 in major units.
const maxMajorDigits = 17

// ToMinorUnits converts a major-unit amount to minor units.
//
// Rounding is half away from zero on the exact decimal value:
// 4.5 -> 450, 0.125 -> 13, 0.124 -> 12.
// A positive input that rounds to zero minor units is rejected.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, ErrNotPositive
	}

	// Bound the magnitude from the exponent before any rescale materializes it.
	if exp := int64(amount.Exponent()); exp > 0 && int64(amount.NumDigits())+exp > maxMajorDigits {
		return 0, ErrTooLarge
	}
	if int64(amount.NumDigits())+int64(amount.Exponent()) < -MinorUnitExponent {
		return 0, ErrNotPositive
	}

	minor := amount.Shift(MinorUnitExponent).Round(0)
	if minor.GreaterThan(maxMinor) {
		return 0, ErrTooLarge
	}
	if minor.Sign() <= 0 {
		return 0, ErrNotPositive
	}

	return minor.IntPart(), nil
}
