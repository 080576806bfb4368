package valueobject

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places stored for amounts and balances.
const MoneyScale = 2

// FitsMoneyScale reports whether d can be stored at MoneyScale without rounding.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}
