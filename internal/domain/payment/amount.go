package payment

import (
	"fmt"
	"math"
)

// Currency is an ISO 4217 code in the lower-case form the processor expects.
type Currency string

// CurrencyUSD is the only currency the storefront charges in.
const CurrencyUSD Currency = "usd"

// minorPerMajor is the number of minor units (cents) in one major unit.
const minorPerMajor = 100

// maxMinorUnits caps amounts well below float64 integer precision loss.
const maxMinorUnits = 99_999_999

// ToMinorUnits converts an amount in major units to minor units, rounding to the
// nearest integer (19.99 -> 1999).
func ToMinorUnits(major float64) (int64, error) {
	if math.IsNaN(major) || math.IsInf(major, 0) {
		return 0, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	if major < 0 {
		return 0, fmt.Errorf("%w: must be zero or greater", ErrInvalidAmount)
	}
	minor := math.Round(major * minorPerMajor)
	if minor > maxMinorUnits {
		return 0, fmt.Errorf("%w: exceeds maximum", ErrInvalidAmount)
	}
	return int64(minor), nil
}
