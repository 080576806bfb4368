// Package adapter defines the ports implemented by the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// TransactionFilter holds equality filters for listing a user's transactions.
// Nil fields are not filtered on.
type TransactionFilter struct {
	UserID      uuid.UUID
	AccountID   *uuid.UUID
	Type        *entity.TransactionType
	Category    *string
	IsRecurring *bool
}

// LedgerSnapshot is the set of transaction fields that determine balance
// effects and recurrence state. Updates compare it against the locked row to
// detect concurrent writers, including the recurring worker advancing a template.
type LedgerSnapshot struct {
	AccountID         uuid.UUID
	Type              entity.TransactionType
	Amount            decimal.Decimal
	NextRecurringDate *time.Time
	LastProcessedAt   *time.Time
}

// SnapshotOf captures the ledger-relevant fields of txn.
func SnapshotOf(txn *entity.Transaction) LedgerSnapshot {
	return LedgerSnapshot{
		AccountID:         txn.AccountID,
		Type:              txn.Type,
		Amount:            txn.Amount,
		NextRecurringDate: txn.NextRecurringDate,
		LastProcessedAt:   txn.LastProcessedAt,
	}
}

// Matches reports whether txn still has the snapshotted ledger fields.
func (s LedgerSnapshot) Matches(txn *entity.Transaction) bool {
	return s.AccountID == txn.AccountID &&
		s.Type == txn.Type &&
		s.Amount.Equal(txn.Amount) &&
		sameInstant(s.NextRecurringDate, txn.NextRecurringDate) &&
		sameInstant(s.LastProcessedAt, txn.LastProcessedAt)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// RecurringPosting is the result of posting one occurrence of a recurring template.
type RecurringPosting struct {
	Template   *entity.Transaction // As stored after advancing
	Occurrence *entity.Transaction
}

// TransactionRepository defines the interface for transaction persistence operations.
// Every method that takes adjustments applies them in the same database
// transaction as the row change; either everything commits or nothing does.
type TransactionRepository interface {
	// CreateWithAdjustments inserts txn and applies the balance adjustments atomically.
	CreateWithAdjustments(ctx context.Context, txn *entity.Transaction, adjustments []entity.BalanceAdjustment) error

	// UpdateWithAdjustments saves txn and applies the adjustments atomically.
	// It fails with a conflict error when the stored row no longer matches expected.
	UpdateWithAdjustments(ctx context.Context, txn *entity.Transaction, expected LedgerSnapshot, adjustments []entity.BalanceAdjustment) error

	// DeleteWithAdjustments locks the user's transactions, soft-deletes them and
	// reverses their balance effects atomically, returning the deleted rows.
	// It fails with ErrTransactionIDsNotFound when any id is missing or not owned.
	DeleteWithAdjustments(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) ([]*entity.Transaction, error)

	// FindByIDAndUser retrieves a transaction owned by userID.
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entity.Transaction, error)

	// FindByFilter retrieves the user's transactions with their accounts, newest first.
	FindByFilter(ctx context.Context, filter TransactionFilter) ([]*entity.TransactionWithAccount, error)

	// FindByAccount retrieves the transactions of one account, newest first.
	FindByAccount(ctx context.Context, accountID, userID uuid.UUID) ([]*entity.Transaction, error)

	// SumByTypeInPeriod returns income and expense totals for a user within [start, end).
	SumByTypeInPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) (*PeriodTotals, error)

	// FindDueRecurring retrieves recurring templates whose next date is at or before now.
	FindDueRecurring(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error)

	// PostRecurringOccurrence posts the occurrence due at dueDate from the stored
	// template, applies its balance effect and advances the template atomically.
	// It returns nil when the template is gone or no longer due at dueDate.
	PostRecurringOccurrence(ctx context.Context, templateID, userID uuid.UUID, dueDate time.Time) (*RecurringPosting, error)
}

// PeriodTotals holds aggregated income and expense amounts.
type PeriodTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}
