// Package money provides currency rounding helpers.
//
// All monetary values flow through shopspring/decimal so intermediate sums
// stay exact; binary floats are never used. The store's currency has no minor
// units in practice, so presented values are rounded to whole units.
package money

import "github.com/shopspring/decimal"

// RoundWhole rounds a monetary value to the nearest whole currency unit.
// Ties (exactly .5) round away from zero.
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
