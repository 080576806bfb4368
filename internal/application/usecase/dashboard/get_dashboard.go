package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// GetDashboardInput represents the input for the dashboard view.
type GetDashboardInput struct {
	UserID uuid.UUID
	Now    time.Time
}

// DashboardAccount is an account row of the dashboard.
type DashboardAccount struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Type      entity.AccountType `json:"type"`
	Balance   decimal.Decimal    `json:"balance"`
	IsDefault bool               `json:"is_default"`
}

// GetDashboardOutput is the cached dashboard view.
type GetDashboardOutput struct {
	Accounts      []DashboardAccount `json:"accounts"`
	TotalBalance  decimal.Decimal    `json:"total_balance"`
	PeriodStart   time.Time          `json:"period_start"`
	PeriodEnd     time.Time          `json:"period_end"`
	PeriodIncome  decimal.Decimal    `json:"period_income"`
	PeriodExpense decimal.Decimal    `json:"period_expense"`
	PeriodNet     decimal.Decimal    `json:"period_net"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Cached        bool               `json:"-"`
}

// GetDashboardUseCase builds a user's balance overview for the current month.
type GetDashboardUseCase struct {
	accountRepo     adapter.AccountRepository
	transactionRepo adapter.TransactionRepository
	cache           adapter.ViewCache
	ttl             time.Duration
}

// NewGetDashboardUseCase creates a new GetDashboardUseCase instance.
func NewGetDashboardUseCase(
	accountRepo adapter.AccountRepository,
	transactionRepo adapter.TransactionRepository,
	cache adapter.ViewCache,
	ttl time.Duration,
) *GetDashboardUseCase {
	return &GetDashboardUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		ttl:             ttl,
	}
}

// Execute returns the dashboard, from cache when a fresh view exists.
func (uc *GetDashboardUseCase) Execute(ctx context.Context, input GetDashboardInput) (*GetDashboardOutput, error) {
	key := adapter.DashboardCacheKey(input.UserID)

	if uc.cache != nil {
		var cached GetDashboardOutput
		hit, err := uc.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.Warn("Failed to read dashboard from cache", "userID", input.UserID, "error", err)
		}
		if hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	accounts, err := uc.accountRepo.FindByUser(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	start, end := MonthBounds(now)
	totals, err := uc.transactionRepo.SumByTypeInPeriod(ctx, input.UserID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}

	summary := &entity.DashboardSummary{
		Accounts:      accounts,
		TotalBalance:  decimal.Zero,
		PeriodStart:   start,
		PeriodEnd:     end,
		PeriodIncome:  totals.Income,
		PeriodExpense: totals.Expense,
		GeneratedAt:   now,
	}
	for _, account := range accounts {
		summary.TotalBalance = summary.TotalBalance.Add(account.Balance)
	}

	output := toOutput(summary)

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, output, uc.ttl); err != nil {
			slog.Warn("Failed to cache dashboard", "userID", input.UserID, "error", err)
		}
	}

	return output, nil
}

func toOutput(summary *entity.DashboardSummary) *GetDashboardOutput {
	accounts := make([]DashboardAccount, 0, len(summary.Accounts))
	for _, account := range summary.Accounts {
		accounts = append(accounts, DashboardAccount{
			ID:        account.ID,
			Name:      account.Name,
			Type:      account.Type,
			Balance:   account.Balance,
			IsDefault: account.IsDefault,
		})
	}

	return &GetDashboardOutput{
		Accounts:      accounts,
		TotalBalance:  summary.TotalBalance,
		PeriodStart:   summary.PeriodStart,
		PeriodEnd:     summary.PeriodEnd,
		PeriodIncome:  summary.PeriodIncome,
		PeriodExpense: summary.PeriodExpense,
		PeriodNet:     summary.PeriodNet(),
		GeneratedAt:   summary.GeneratedAt,
	}
}
