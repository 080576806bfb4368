package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// ListTransactionsInput represents the input for listing transactions.
// Every non-nil filter is an equality match.
type ListTransactionsInput struct {
	UserID      uuid.UUID
	AccountID   *uuid.UUID
	Type        *entity.TransactionType
	Category    *string
	IsRecurring *bool
}

// ListTransactionsOutput represents the output of listing transactions.
type ListTransactionsOutput struct {
	Transactions []*TransactionOutput
}

// ListTransactionsUseCase lists a user's transactions, newest first, each with its account.
type ListTransactionsUseCase struct {
	transactionRepo adapter.TransactionRepository
}

// NewListTransactionsUseCase creates a new ListTransactionsUseCase instance.
func NewListTransactionsUseCase(transactionRepo adapter.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute performs the listing.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, input ListTransactionsInput) (*ListTransactionsOutput, error) {
	if err := requireCaller(input.UserID); err != nil {
		return nil, err
	}

	results, err := uc.transactionRepo.FindByFilter(ctx, adapter.TransactionFilter{
		UserID:      input.UserID,
		AccountID:   input.AccountID,
		Type:        input.Type,
		Category:    input.Category,
		IsRecurring: input.IsRecurring,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	transactions := make([]*TransactionOutput, 0, len(results))
	for _, result := range results {
		output := toTransactionOutput(result.Transaction)
		output.Account = toAccountOutput(result.Account)
		transactions = append(transactions, output)
	}

	return &ListTransactionsOutput{
		Transactions: transactions,
	}, nil
}
