package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// GetAccountInput represents the input for fetching an account view.
type GetAccountInput struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// AccountTransaction is a transaction listed inside an account view.
type AccountTransaction struct {
	ID          uuid.UUID              `json:"id"`
	Type        entity.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Date        time.Time              `json:"date"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	IsRecurring bool                   `json:"is_recurring"`
}

// GetAccountOutput is the cached account view: the account and its transactions.
type GetAccountOutput struct {
	Account      *AccountOutput        `json:"account"`
	Transactions []*AccountTransaction `json:"transactions"`
}

// GetAccountUseCase returns an account view, serving it from the view cache when present.
type GetAccountUseCase struct {
	accountRepo     adapter.AccountRepository
	transactionRepo adapter.TransactionRepository
	cache           adapter.ViewCache
	ttl             time.Duration
}

// NewGetAccountUseCase creates a new GetAccountUseCase instance.
func NewGetAccountUseCase(
	accountRepo adapter.AccountRepository,
	transactionRepo adapter.TransactionRepository,
	cache adapter.ViewCache,
	ttl time.Duration,
) *GetAccountUseCase {
	return &GetAccountUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		ttl:             ttl,
	}
}

// Execute fetches the account view.
func (uc *GetAccountUseCase) Execute(ctx context.Context, input GetAccountInput) (*GetAccountOutput, error) {
	key := adapter.AccountCacheKey(input.ID)

	if uc.cache != nil {
		var cached GetAccountOutput
		hit, err := uc.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.Warn("Failed to read account view from cache", "accountID", input.ID, "error", err)
		}
		// Cached views are keyed by account only, so ownership is re-checked.
		if hit && cached.Account != nil && cached.Account.UserID == input.UserID {
			return &cached, nil
		}
	}

	account, err := uc.accountRepo.FindByIDAndUser(ctx, input.ID, input.UserID)
	if err != nil {
		if errors.Is(err, domainerror.ErrAccountNotFound) {
			return nil, accountNotFoundError()
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	txns, err := uc.transactionRepo.FindByAccount(ctx, account.ID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account transactions: %w", err)
	}

	output := &GetAccountOutput{
		Account:      toAccountOutput(account),
		Transactions: make([]*AccountTransaction, 0, len(txns)),
	}
	for _, txn := range txns {
		output.Transactions = append(output.Transactions, &AccountTransaction{
			ID:          txn.ID,
			Type:        txn.Type,
			Amount:      txn.Amount,
			Date:        txn.Date,
			Description: txn.Description,
			Category:    txn.Category,
			IsRecurring: txn.IsRecurring,
		})
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, output, uc.ttl); err != nil {
			slog.Warn("Failed to cache account view", "accountID", input.ID, "error", err)
		}
	}

	return output, nil
}
