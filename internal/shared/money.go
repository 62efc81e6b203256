package shared

import "github.com/shopspring/decimal"

// ApplySurcharge charges a percentage on top of amount and rounds to cents.
// Money math goes through decimals so 150 * 1.05 lands on 157.50 exactly.
func ApplySurcharge(amount decimal.Decimal, percent float64) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)))
	return amount.Mul(factor).Round(2)
}
