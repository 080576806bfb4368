package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// AccountRepository defines the interface for account persistence operations.
// Balances are never written here after creation; see TransactionRepository.
type AccountRepository interface {
	// Create inserts an account. When the account is the default one, any
	// previous default of the same user is cleared in the same transaction.
	Create(ctx context.Context, account *entity.Account) error

	// FindByIDAndUser retrieves an account owned by userID.
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entity.Account, error)

	// FindByUser retrieves all accounts of a user ordered by creation time.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Account, error)

	// CountByUser returns how many accounts a user owns.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
