// Package money converts between stored integer cents and decimal prices and
// holds the storefront shipping rule.
package money

import "github.com/shopspring/decimal"

var (
	FreeShippingOver = decimal.NewFromInt(30)
	StandardShipping = decimal.New(499, -2)
)

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents rounds half away from zero to the nearest cent.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// Shipping is free strictly above FreeShippingOver.
func Shipping(itemsPrice decimal.Decimal) decimal.Decimal {
	if itemsPrice.GreaterThan(FreeShippingOver) {
		return decimal.Zero
	}
	return StandardShipping
}

func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}
