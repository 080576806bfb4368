package dto

import (
	"encoding/json"
	"time"

	"github.com/finance-tracker/ledger-api/internal/application/usecase/dashboard"
)

// DashboardAccountResponse represents an account row of the dashboard.
type DashboardAccountResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Balance   json.Number `json:"balance"`
	IsDefault bool        `json:"is_default"`
}

// DashboardPeriodResponse represents the month summarized by the dashboard.
type DashboardPeriodResponse struct {
	Start   string      `json:"start"`
	End     string      `json:"end"`
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
	Net     json.Number `json:"net"`
}

// DashboardResponse represents the dashboard view.
type DashboardResponse struct {
	Accounts     []DashboardAccountResponse `json:"accounts"`
	TotalBalance json.Number                `json:"total_balance"`
	Period       DashboardPeriodResponse    `json:"period"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}

// ToDashboardResponse converts a GetDashboardOutput to a DashboardResponse DTO.
func ToDashboardResponse(output *dashboard.GetDashboardOutput) DashboardResponse {
	accounts := make([]DashboardAccountResponse, len(output.Accounts))
	for i, acc := range output.Accounts {
		accounts[i] = DashboardAccountResponse{
			ID:        acc.ID.String(),
			Name:      acc.Name,
			Type:      string(acc.Type),
			Balance:   Money(acc.Balance),
			IsDefault: acc.IsDefault,
		}
	}

	return DashboardResponse{
		Accounts:     accounts,
		TotalBalance: Money(output.TotalBalance),
		Period: DashboardPeriodResponse{
			Start:   output.PeriodStart.Format(DateLayout),
			End:     output.PeriodEnd.Format(DateLayout),
			Income:  Money(output.PeriodIncome),
			Expense: Money(output.PeriodExpense),
			Net:     Money(output.PeriodNet),
		},
		GeneratedAt: output.GeneratedAt,
	}
}
