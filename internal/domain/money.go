package domain

import "github.com/shopspring/decimal"

// RoundCurrency rounds an amount to 2 decimal places using round-half-up,
// the rounding used for all register reconciliation math.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	// decimal.Round is half-away-from-zero, which matches half-up for the
	// nonnegative drawer amounts and keeps symmetry for signed differences.
	return d.Round(2)
}
