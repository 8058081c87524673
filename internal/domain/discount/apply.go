package discount

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Apply computes the discount amount for a subtotal. The result is clamped
// to [0, subtotal] so the amount charged can never go negative, and rounded
// to 2 decimal places.
func Apply(c *Code, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Type {
	case TypePercentage:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case TypeFixed:
		amount = c.Value
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2)
}
