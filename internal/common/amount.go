package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDisplayDecimals bounds the decimal exponents for which base/display
// conversion is guaranteed exact and symmetric.
const MaxDisplayDecimals = 16

// displayPrecision is the number of fractional digits kept when an amount
// is formatted for a persisted transaction record.
const displayPrecision = 5

// ToBaseUnits converts a display-unit amount into integer base units using
// the currency's decimal exponent. Amounts carrying more fractional digits
// than the currency supports are rejected rather than silently rounded.
func ToBaseUnits(display decimal.Decimal, decimals int32) (decimal.Decimal, error) {
	base := display.Shift(decimals)
	if !base.Equal(base.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("amount %s exceeds %d decimal places", display.String(), decimals)
	}
	return base, nil
}

// FromBaseUnits is the exact inverse of ToBaseUnits.
func FromBaseUnits(base decimal.Decimal, decimals int32) decimal.Decimal {
	return base.Shift(-decimals)
}

// DisplayAmount renders a base-unit amount the way transaction records
// store it: truncated to five decimal places, trailing zeros stripped.
func DisplayAmount(base decimal.Decimal, decimals int32) decimal.Decimal {
	truncated := FromBaseUnits(base, decimals).Truncate(displayPrecision)
	out, err := decimal.NewFromString(trimZeros(truncated.String()))
	if err != nil {
		return truncated
	}
	return out
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// FallbackFee is the estimate substituted when the chain cannot be queried
// for a transfer cost: 0.01 in the currency's decimal base.
func FallbackFee(decimals int32) decimal.Decimal {
	return decimal.New(1, -2).Shift(decimals)
}
