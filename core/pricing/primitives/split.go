// Package primitives - Ratio helpers
package primitives

import "github.com/shopspring/decimal"

// Split divides total into a share of firstRatio and the remainder. The two
// parts always add back up to total.
func Split(total, firstRatio decimal.Decimal) (first, second decimal.Decimal) {
	first = total.Mul(firstRatio)
	return first, total.Sub(first)
}

// Apportion splits amount between two resources in proportion to their
// weights. Both weights zero falls back to an even split.
func Apportion(amount, weightA, weightB decimal.Decimal) (a, b decimal.Decimal) {
	sum := weightA.Add(weightB)
	if sum.IsZero() {
		a = amount.Mul(half)
		return a, amount.Sub(a)
	}
	a = amount.Mul(weightA).Div(sum)
	return a, amount.Sub(a)
}

// Weight returns the proportional weight of a within a+b, 0.5 when both are zero
func Weight(a, b decimal.Decimal) decimal.Decimal {
	sum := a.Add(b)
	if sum.IsZero() {
		return half
	}
	return a.Div(sum)
}

// Percent returns part / whole * 100, zero when whole is zero
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
