package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates a user's accounts with the totals of a period.
type DashboardSummary struct {
	Accounts      []*Account
	TotalBalance  decimal.Decimal
	PeriodStart   time.Time
	PeriodEnd     time.Time
	PeriodIncome  decimal.Decimal
	PeriodExpense decimal.Decimal
	GeneratedAt   time.Time
}

// PeriodNet returns income minus expense for the period.
func (d *DashboardSummary) PeriodNet() decimal.Decimal {
	return d.PeriodIncome.Sub(d.PeriodExpense)
}
