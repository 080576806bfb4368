// Package transaction contains transaction-related use cases.
package transaction

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
	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

// MaxDescriptionLength is the maximum allowed length for transaction descriptions.
const MaxDescriptionLength = 255

// TransactionOutput represents a single transaction in the output.
type TransactionOutput struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	AccountID         uuid.UUID
	Type              entity.TransactionType
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
	Category          string
	IsRecurring       bool
	RecurringInterval *valueobject.RecurringInterval
	NextRecurringDate *time.Time
	LastProcessedAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Account           *AccountOutput
}

// AccountOutput represents the owning account embedded in transaction output.
type AccountOutput struct {
	ID        uuid.UUID
	Name      string
	Type      entity.AccountType
	Balance   decimal.Decimal
	IsDefault bool
}

func toTransactionOutput(txn *entity.Transaction) *TransactionOutput {
	return &TransactionOutput{
		ID:                txn.ID,
		UserID:            txn.UserID,
		AccountID:         txn.AccountID,
		Type:              txn.Type,
		Amount:            txn.Amount,
		Date:              txn.Date,
		Description:       txn.Description,
		Category:          txn.Category,
		IsRecurring:       txn.IsRecurring,
		RecurringInterval: txn.RecurringInterval,
		NextRecurringDate: txn.NextRecurringDate,
		LastProcessedAt:   txn.LastProcessedAt,
		CreatedAt:         txn.CreatedAt,
		UpdatedAt:         txn.UpdatedAt,
	}
}

func toAccountOutput(account *entity.Account) *AccountOutput {
	if account == nil {
		return nil
	}
	return &AccountOutput{
		ID:        account.ID,
		Name:      account.Name,
		Type:      account.Type,
		Balance:   account.Balance,
		IsDefault: account.IsDefault,
	}
}

// requireCaller rejects calls that carry no authenticated user.
func requireCaller(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeTxnUnauthenticated,
			"unauthorized",
			domainerror.ErrUnauthenticated,
		)
	}
	return nil
}

// validateTransaction checks the caller-supplied fields of a transaction.
func validateTransaction(txn *entity.Transaction) error {
	if !txn.Type.IsValid() {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidTransactionType,
			"transaction type must be 'INCOME' or 'EXPENSE'",
			domainerror.ErrInvalidTransactionType,
		)
	}

	if txn.Amount.IsNegative() {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidTransactionAmount,
			"amount must not be negative",
			domainerror.ErrInvalidTransactionAmount,
		)
	}

	if !valueobject.FitsMoneyScale(txn.Amount) {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidTransactionAmount,
			fmt.Sprintf("amount must not have more than %d decimal places", valueobject.MoneyScale),
			domainerror.ErrInvalidTransactionAmount,
		)
	}

	if txn.Date.IsZero() {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidTransactionDate,
			"date is required",
			domainerror.ErrInvalidTransactionDate,
		)
	}

	if len(txn.Description) > MaxDescriptionLength {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeDescriptionTooLong,
			fmt.Sprintf("description must not exceed %d characters", MaxDescriptionLength),
			domainerror.ErrDescriptionTooLong,
		)
	}

	if txn.RecurringInterval != nil && !txn.RecurringInterval.IsValid() {
		return domainerror.NewTransactionError(
			domainerror.ErrCodeInvalidRecurringInterval,
			"recurring interval must be DAILY, WEEKLY, MONTHLY or YEARLY",
			domainerror.ErrInvalidRecurringInterval,
		)
	}

	return nil
}

// loadOwnedAccount fetches an account and maps a miss to a transaction not-found error.
func loadOwnedAccount(ctx context.Context, accountRepo adapter.AccountRepository, accountID, userID uuid.UUID) (*entity.Account, error) {
	account, err := accountRepo.FindByIDAndUser(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, domainerror.ErrAccountNotFound) {
			return nil, accountNotFoundError()
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

func accountNotFoundError() error {
	return domainerror.NewTransactionError(
		domainerror.ErrCodeTxnAccountNotFound,
		"account not found",
		domainerror.ErrAccountNotFound,
	)
}

func transactionNotFoundError() error {
	return domainerror.NewTransactionError(
		domainerror.ErrCodeTransactionNotFound,
		"transaction not found",
		domainerror.ErrTransactionNotFound,
	)
}

// mapLedgerError converts repository sentinels raised inside a ledger write
// into typed transaction errors.
func mapLedgerError(err error, action string) error {
	switch {
	case errors.Is(err, domainerror.ErrAccountNotFound):
		return accountNotFoundError()
	case errors.Is(err, domainerror.ErrTransactionNotFound):
		return transactionNotFoundError()
	case errors.Is(err, domainerror.ErrConcurrentModification):
		return domainerror.NewTransactionError(
			domainerror.ErrCodeConcurrentModification,
			"transaction was modified concurrently, please retry",
			err,
		)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

// invalidateViews drops the dashboard and account views touched by a ledger write.
// Failures are logged only; the write has already committed.
func invalidateViews(ctx context.Context, cache adapter.ViewCache, userID uuid.UUID, accountIDs ...uuid.UUID) {
	if cache == nil {
		return
	}

	if err := cache.InvalidateDashboard(ctx, userID); err != nil {
		slog.Warn("Failed to invalidate dashboard view",
			"userID", userID,
			"error", err,
		)
	}

	seen := make(map[uuid.UUID]struct{}, len(accountIDs))
	for _, accountID := range accountIDs {
		if _, ok := seen[accountID]; ok {
			continue
		}
		seen[accountID] = struct{}{}

		if err := cache.InvalidateAccount(ctx, accountID); err != nil {
			slog.Warn("Failed to invalidate account view",
				"accountID", accountID,
				"error", err,
			)
		}
	}
}
