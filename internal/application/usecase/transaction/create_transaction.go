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

// CreateTransactionInput represents the input for transaction creation.
type CreateTransactionInput struct {
	UserID            uuid.UUID
	AccountID         uuid.UUID
	Type              entity.TransactionType
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
	Category          string
	IsRecurring       bool
	RecurringInterval *valueobject.RecurringInterval
}

// CreateTransactionOutput represents the output of transaction creation.
type CreateTransactionOutput struct {
	Transaction *TransactionOutput
}

// CreateTransactionUseCase posts a new transaction and applies its balance effect.
type CreateTransactionUseCase struct {
	transactionRepo adapter.TransactionRepository
	accountRepo     adapter.AccountRepository
	userRepo        adapter.UserRepository
	gate            adapter.AdmissionGate
	cache           adapter.ViewCache
}

// NewCreateTransactionUseCase creates a new CreateTransactionUseCase instance.
func NewCreateTransactionUseCase(
	transactionRepo adapter.TransactionRepository,
	accountRepo adapter.AccountRepository,
	userRepo adapter.UserRepository,
	gate adapter.AdmissionGate,
	cache adapter.ViewCache,
) *CreateTransactionUseCase {
	return &CreateTransactionUseCase{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		userRepo:        userRepo,
		gate:            gate,
		cache:           cache,
	}
}

// Execute performs the transaction creation.
func (uc *CreateTransactionUseCase) Execute(ctx context.Context, input CreateTransactionInput) (*CreateTransactionOutput, error) {
	if err := requireCaller(input.UserID); err != nil {
		return nil, err
	}

	if err := access.Admit(ctx, uc.gate, input.UserID, 1); err != nil {
		return nil, err
	}

	txn := entity.NewTransaction(
		input.UserID,
		input.AccountID,
		input.Type,
		input.Amount,
		input.Date,
		input.Description,
		input.Category,
		input.IsRecurring,
		input.RecurringInterval,
	)

	if err := validateTransaction(txn); err != nil {
		return nil, err
	}

	if _, err := uc.userRepo.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return nil, domainerror.NewTransactionError(
				domainerror.ErrCodeTxnUserNotFound,
				"user not found",
				domainerror.ErrUserNotFound,
			)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := loadOwnedAccount(ctx, uc.accountRepo, input.AccountID, input.UserID); err != nil {
		return nil, err
	}

	adjustments := entity.AdjustmentsForCreate(txn)
	if err := uc.transactionRepo.CreateWithAdjustments(ctx, txn, adjustments); err != nil {
		return nil, mapLedgerError(err, "create transaction")
	}

	slog.Debug("Transaction created",
		"userID", input.UserID,
		"transactionID", txn.ID,
		"accountID", txn.AccountID,
		"delta", txn.SignedEffect().String(),
	)

	invalidateViews(ctx, uc.cache, input.UserID, txn.AccountID)

	return &CreateTransactionOutput{
		Transaction: toTransactionOutput(txn),
	}, nil
}
