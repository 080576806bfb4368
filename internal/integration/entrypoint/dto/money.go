package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

// Money renders an amount as a JSON number. Stored amounts carry two decimal
// places and render as such; anything finer is rendered exactly, never rounded.
func Money(amount decimal.Decimal) json.Number {
	if valueobject.FitsMoneyScale(amount) {
		return json.Number(amount.StringFixed(valueobject.MoneyScale))
	}
	return json.Number(amount.String())
}
