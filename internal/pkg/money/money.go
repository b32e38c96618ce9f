// Package money holds the currency arithmetic helpers used by pricing and billing.
// Amounts are shopspring decimals in the property's single currency.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round rounds to the currency minor unit (two places, half away from zero).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns pct percent of base.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Positive reports whether d is set and greater than zero.
func Positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
