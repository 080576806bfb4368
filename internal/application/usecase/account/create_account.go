package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

// CreateAccountInput represents the input for account creation.
type CreateAccountInput struct {
	UserID         uuid.UUID
	Name           string
	Type           entity.AccountType
	OpeningBalance decimal.Decimal
	IsDefault      bool
}

// CreateAccountOutput represents the output of account creation.
type CreateAccountOutput struct {
	Account *AccountOutput
}

// CreateAccountUseCase handles account creation.
type CreateAccountUseCase struct {
	accountRepo adapter.AccountRepository
	cache       adapter.ViewCache
}

// NewCreateAccountUseCase creates a new CreateAccountUseCase instance.
func NewCreateAccountUseCase(accountRepo adapter.AccountRepository, cache adapter.ViewCache) *CreateAccountUseCase {
	return &CreateAccountUseCase{
		accountRepo: accountRepo,
		cache:       cache,
	}
}

// Execute performs the account creation. A user's first account is always the default.
func (uc *CreateAccountUseCase) Execute(ctx context.Context, input CreateAccountInput) (*CreateAccountOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > MaxAccountNameLength {
		return nil, domainerror.NewAccountError(
			domainerror.ErrCodeInvalidAccountName,
			fmt.Sprintf("name is required and must not exceed %d characters", MaxAccountNameLength),
			domainerror.ErrInvalidAccountName,
		)
	}

	accountType := input.Type
	if accountType == "" {
		accountType = entity.AccountTypeCurrent
	}
	if !accountType.IsValid() {
		return nil, domainerror.NewAccountError(
			domainerror.ErrCodeInvalidAccountType,
			"account type must be 'CURRENT' or 'SAVINGS'",
			domainerror.ErrInvalidAccountType,
		)
	}

	if !valueobject.FitsMoneyScale(input.OpeningBalance) {
		return nil, domainerror.NewAccountError(
			domainerror.ErrCodeInvalidOpeningBalance,
			fmt.Sprintf("opening balance must not have more than %d decimal places", valueobject.MoneyScale),
			domainerror.ErrInvalidOpeningBalance,
		)
	}

	count, err := uc.accountRepo.CountByUser(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	account := entity.NewAccount(input.UserID, name, accountType, input.OpeningBalance, input.IsDefault || count == 0)
	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if uc.cache != nil {
		if err := uc.cache.InvalidateDashboard(ctx, input.UserID); err != nil {
			slog.Warn("Failed to invalidate dashboard view",
				"userID", input.UserID,
				"error", err,
			)
		}
	}

	return &CreateAccountOutput{
		Account: toAccountOutput(account),
	}, nil
}
