package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	"github.com/finance-tracker/ledger-api/internal/domain/valueobject"
)

// TransactionModel represents the transactions table in the database.
type TransactionModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type              string          `gorm:"type:varchar(10);not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Date              time.Time       `gorm:"not null;index"`
	Description       string          `gorm:"type:varchar(255);not null;default:''"`
	Category          string          `gorm:"type:varchar(100);not null;default:'';index"`
	IsRecurring       bool            `gorm:"default:false;index"`
	RecurringInterval *string         `gorm:"type:varchar(10)"`
	NextRecurringDate *time.Time      `gorm:"index"`
	LastProcessedAt   *time.Time
	CreatedAt         time.Time      `gorm:"not null"`
	UpdatedAt         time.Time      `gorm:"not null"`
	DeletedAt         gorm.DeletedAt `gorm:"index"` // Soft-delete support

	// Relationships (not loaded by default, use Preload)
	Account *AccountModel `gorm:"foreignKey:AccountID;references:ID"`
	User    *UserModel    `gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the table name for the TransactionModel.
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts a TransactionModel to a domain Transaction entity.
func (m *TransactionModel) ToEntity() *entity.Transaction {
	var deletedAt *time.Time
	if m.DeletedAt.Valid {
		deletedAt = &m.DeletedAt.Time
	}

	var interval *valueobject.RecurringInterval
	if m.RecurringInterval != nil {
		value := valueobject.RecurringInterval(*m.RecurringInterval)
		interval = &value
	}

	return &entity.Transaction{
		ID:                m.ID,
		UserID:            m.UserID,
		AccountID:         m.AccountID,
		Type:              entity.TransactionType(m.Type),
		Amount:            m.Amount,
		Date:              m.Date,
		Description:       m.Description,
		Category:          m.Category,
		IsRecurring:       m.IsRecurring,
		RecurringInterval: interval,
		NextRecurringDate: m.NextRecurringDate,
		LastProcessedAt:   m.LastProcessedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		DeletedAt:         deletedAt,
	}
}

// ToEntityWithAccount converts a TransactionModel with its preloaded Account.
func (m *TransactionModel) ToEntityWithAccount() *entity.TransactionWithAccount {
	result := &entity.TransactionWithAccount{
		Transaction: m.ToEntity(),
	}

	if m.Account != nil {
		result.Account = m.Account.ToEntity()
	}

	return result
}

// TransactionFromEntity creates a TransactionModel from a domain Transaction entity.
func TransactionFromEntity(transaction *entity.Transaction) *TransactionModel {
	var deletedAt gorm.DeletedAt
	if transaction.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *transaction.DeletedAt, Valid: true}
	}

	var interval *string
	if transaction.RecurringInterval != nil {
		value := string(*transaction.RecurringInterval)
		interval = &value
	}

	return &TransactionModel{
		ID:                transaction.ID,
		UserID:            transaction.UserID,
		AccountID:         transaction.AccountID,
		Type:              string(transaction.Type),
		Amount:            transaction.Amount,
		Date:              transaction.Date,
		Description:       transaction.Description,
		Category:          transaction.Category,
		IsRecurring:       transaction.IsRecurring,
		RecurringInterval: interval,
		NextRecurringDate: transaction.NextRecurringDate,
		LastProcessedAt:   transaction.LastProcessedAt,
		CreatedAt:         transaction.CreatedAt,
		UpdatedAt:         transaction.UpdatedAt,
		DeletedAt:         deletedAt,
	}
}
