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
	"github.com/finance-tracker/ledger-api/internal/application/usecase/access"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

// UpdateTransactionInput represents the input for transaction update.
// Nil fields keep their stored value.
type UpdateTransactionInput struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	AccountID         *uuid.UUID
	Type              *entity.TransactionType
	Amount            *decimal.Decimal
	Date              *time.Time
	Description       *string
	Category          *string
	IsRecurring       *bool
	RecurringInterval *valueobject.RecurringInterval
}

// UpdateTransactionOutput represents the output of transaction update.
type UpdateTransactionOutput struct {
	Transaction *TransactionOutput
}

// UpdateTransactionUseCase modifies a transaction and rebalances the affected accounts.
type UpdateTransactionUseCase struct {
	transactionRepo adapter.TransactionRepository
	accountRepo     adapter.AccountRepository
	gate            adapter.AdmissionGate
	cache           adapter.ViewCache
}

// NewUpdateTransactionUseCase creates a new UpdateTransactionUseCase instance.
func NewUpdateTransactionUseCase(
	transactionRepo adapter.TransactionRepository,
	accountRepo adapter.AccountRepository,
	gate adapter.AdmissionGate,
	cache adapter.ViewCache,
) *UpdateTransactionUseCase {
	return &UpdateTransactionUseCase{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		gate:            gate,
		cache:           cache,
	}
}

// Execute performs the transaction update.
func (uc *UpdateTransactionUseCase) Execute(ctx context.Context, input UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	if err := requireCaller(input.UserID); err != nil {
		return nil, err
	}

	if err := access.Admit(ctx, uc.gate, input.UserID, 1); err != nil {
		return nil, err
	}

	original, err := uc.transactionRepo.FindByIDAndUser(ctx, input.ID, input.UserID)
	if err != nil {
		if errors.Is(err, domainerror.ErrTransactionNotFound) {
			return nil, transactionNotFoundError()
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	updated := applyUpdate(original, input)
	if err := validateTransaction(updated); err != nil {
		return nil, err
	}

	if updated.AccountID != original.AccountID {
		if _, err := loadOwnedAccount(ctx, uc.accountRepo, updated.AccountID, input.UserID); err != nil {
			return nil, err
		}
	}

	adjustments := entity.AdjustmentsForUpdate(original, updated)
	if err := uc.transactionRepo.UpdateWithAdjustments(ctx, updated, adapter.SnapshotOf(original), adjustments); err != nil {
		return nil, mapLedgerError(err, "update transaction")
	}

	slog.Debug("Transaction updated",
		"userID", input.UserID,
		"transactionID", updated.ID,
		"fromAccountID", original.AccountID,
		"toAccountID", updated.AccountID,
		"adjustments", len(adjustments),
	)

	invalidateViews(ctx, uc.cache, input.UserID, original.AccountID, updated.AccountID)

	return &UpdateTransactionOutput{
		Transaction: toTransactionOutput(updated),
	}, nil
}

// applyUpdate returns a copy of original with the input's non-nil fields applied
// and the recurrence projection recomputed.
func applyUpdate(original *entity.Transaction, input UpdateTransactionInput) *entity.Transaction {
	updated := *original

	if input.AccountID != nil {
		updated.AccountID = *input.AccountID
	}
	if input.Type != nil {
		updated.Type = *input.Type
	}
	if input.Amount != nil {
		updated.Amount = *input.Amount
	}
	if input.Date != nil {
		updated.Date = *input.Date
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.Category != nil {
		updated.Category = *input.Category
	}
	if input.IsRecurring != nil {
		updated.IsRecurring = *input.IsRecurring
	}
	if input.RecurringInterval != nil {
		interval := *input.RecurringInterval
		updated.RecurringInterval = &interval
	}

	updated.RefreshRecurrence()
	updated.UpdatedAt = time.Now().UTC()
	return &updated
}
