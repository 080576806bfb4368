package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/access"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// BulkDeleteTransactionsInput represents the input for bulk transaction deletion.
type BulkDeleteTransactionsInput struct {
	TransactionIDs []uuid.UUID
	UserID         uuid.UUID
}

// BulkDeleteTransactionsOutput represents the output of bulk transaction deletion.
type BulkDeleteTransactionsOutput struct {
	DeletedCount int
}

// BulkDeleteTransactionsUseCase deletes transactions and reverses their balance effects.
type BulkDeleteTransactionsUseCase struct {
	transactionRepo adapter.TransactionRepository
	gate            adapter.AdmissionGate
	cache           adapter.ViewCache
}

// NewBulkDeleteTransactionsUseCase creates a new BulkDeleteTransactionsUseCase instance.
func NewBulkDeleteTransactionsUseCase(
	transactionRepo adapter.TransactionRepository,
	gate adapter.AdmissionGate,
	cache adapter.ViewCache,
) *BulkDeleteTransactionsUseCase {
	return &BulkDeleteTransactionsUseCase{
		transactionRepo: transactionRepo,
		gate:            gate,
		cache:           cache,
	}
}

// Execute performs the bulk transaction deletion.
func (uc *BulkDeleteTransactionsUseCase) Execute(ctx context.Context, input BulkDeleteTransactionsInput) (*BulkDeleteTransactionsOutput, error) {
	if err := requireCaller(input.UserID); err != nil {
		return nil, err
	}

	ids := uniqueIDs(input.TransactionIDs)
	if len(ids) == 0 {
		return nil, domainerror.NewTransactionError(
			domainerror.ErrCodeEmptyTransactionIDs,
			"transaction IDs list cannot be empty",
			domainerror.ErrEmptyTransactionIDs,
		)
	}

	if err := access.Admit(ctx, uc.gate, input.UserID, 1); err != nil {
		return nil, err
	}

	txns, err := uc.transactionRepo.DeleteWithAdjustments(ctx, ids, input.UserID)
	if err != nil {
		if errors.Is(err, domainerror.ErrTransactionIDsNotFound) {
			return nil, domainerror.NewTransactionError(
				domainerror.ErrCodeTransactionIDsNotFound,
				"one or more transactions not found or not owned by user",
				domainerror.ErrTransactionIDsNotFound,
			)
		}
		return nil, mapLedgerError(err, "delete transactions")
	}

	accountIDs := make([]uuid.UUID, 0, len(txns))
	for _, txn := range txns {
		accountIDs = append(accountIDs, txn.AccountID)
	}
	invalidateViews(ctx, uc.cache, input.UserID, accountIDs...)

	return &BulkDeleteTransactionsOutput{
		DeletedCount: len(txns),
	}, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
