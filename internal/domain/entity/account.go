package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the kind of account.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// IsValid reports whether the account type is supported.
func (t AccountType) IsValid() bool {
	return t == AccountTypeCurrent || t == AccountTypeSavings
}

// Account represents a bank or cash account owned by a user.
// Balance is only written by the ledger after creation.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates a new Account entity with an opening balance.
func NewAccount(userID uuid.UUID, name string, accountType AccountType, openingBalance decimal.Decimal, isDefault bool) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		Balance:   openingBalance,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
