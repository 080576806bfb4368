// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

// TransactionType represents the direction of a transaction.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid reports whether the type is INCOME or EXPENSE.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents a single income or expense posted to an account.
type Transaction struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	AccountID         uuid.UUID
	Type              TransactionType
	Amount            decimal.Decimal // Always non-negative; direction comes from Type
	Date              time.Time
	Description       string
	Category          string
	IsRecurring       bool
	RecurringInterval *valueobject.RecurringInterval
	NextRecurringDate *time.Time // Derived from Date and RecurringInterval
	LastProcessedAt   *time.Time // Date of the latest occurrence posted from this template
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time // Soft-delete support
}

// NewTransaction creates a new Transaction entity and projects its recurrence.
func NewTransaction(
	userID uuid.UUID,
	accountID uuid.UUID,
	transactionType TransactionType,
	amount decimal.Decimal,
	date time.Time,
	description string,
	category string,
	isRecurring bool,
	interval *valueobject.RecurringInterval,
) *Transaction {
	now := time.Now().UTC()

	txn := &Transaction{
		ID:                uuid.New(),
		UserID:            userID,
		AccountID:         accountID,
		Type:              transactionType,
		Amount:            amount,
		Date:              date,
		Description:       description,
		Category:          category,
		IsRecurring:       isRecurring,
		RecurringInterval: interval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	txn.RefreshRecurrence()
	return txn
}

// SignedEffect returns the amount this transaction contributes to its account balance.
func (t *Transaction) SignedEffect() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// RefreshRecurrence recomputes NextRecurringDate from Date and RecurringInterval.
// A non-recurring transaction never carries an interval or a projection.
// Occurrences already posted are skipped so a projection never points at or
// before LastProcessedAt.
func (t *Transaction) RefreshRecurrence() {
	if !t.IsRecurring {
		t.RecurringInterval = nil
		t.NextRecurringDate = nil
		return
	}
	if t.RecurringInterval == nil || !t.RecurringInterval.IsValid() {
		t.NextRecurringDate = nil
		return
	}
	next := valueobject.NextOccurrence(t.Date, *t.RecurringInterval)
	for t.LastProcessedAt != nil && !next.After(*t.LastProcessedAt) {
		next = valueobject.NextOccurrenceAnchored(next, *t.RecurringInterval, t.Date.Day())
	}
	t.NextRecurringDate = &next
}

// AdvanceRecurrence marks the occurrence at the current projection as posted
// and moves the projection one interval forward. Monthly and yearly steps stay
// anchored on the day of Date.
func (t *Transaction) AdvanceRecurrence() {
	if t.NextRecurringDate == nil || t.RecurringInterval == nil {
		return
	}
	posted := *t.NextRecurringDate
	next := valueobject.NextOccurrenceAnchored(posted, *t.RecurringInterval, t.Date.Day())
	t.LastProcessedAt = &posted
	t.NextRecurringDate = &next
	t.UpdatedAt = time.Now().UTC()
}

// Occurrence builds the non-recurring copy of a recurring template posted on date.
func (t *Transaction) Occurrence(date time.Time) *Transaction {
	return NewTransaction(
		t.UserID,
		t.AccountID,
		t.Type,
		t.Amount,
		date,
		t.Description,
		t.Category,
		false,
		nil,
	)
}

// TransactionWithAccount represents a transaction with its owning account.
type TransactionWithAccount struct {
	Transaction *Transaction
	Account     *Account
}
