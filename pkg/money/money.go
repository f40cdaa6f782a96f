// Package money converts between provider amounts (integer minor-currency
// units) and record amounts (major-currency decimals). Every boundary
// crossing in the codebase goes through these helpers so the x100 / /100
// conversion is applied in exactly one place.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MinorToMajor converts cents into a two-decimal major-unit amount.
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// MajorToMinor converts a major-unit amount into cents, rounding to the
// nearest cent before truncating so 149.999 does not silently become 14999.
func MajorToMinor(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}

// MajorFloat renders a major-unit amount as float64 for document storage.
func MajorFloat(minor int64) float64 {
	f, _ := MinorToMajor(minor).Float64()
	return f
}
