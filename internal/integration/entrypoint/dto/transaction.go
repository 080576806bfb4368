package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/usecase/transaction"
)

// DateLayout is the date-only format accepted and returned by the API.
const DateLayout = "2006-01-02"

// CreateTransactionRequest represents the request body for transaction creation.
type CreateTransactionRequest struct {
	AccountID         string           `json:"account_id" binding:"required"`
	Type              string           `json:"type" binding:"required"`
	Amount            *decimal.Decimal `json:"amount" binding:"required"`
	Date              string           `json:"date" binding:"required"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	IsRecurring       bool             `json:"is_recurring"`
	RecurringInterval *string          `json:"recurring_interval,omitempty"`
}

// UpdateTransactionRequest represents the request body for a partial transaction update.
type UpdateTransactionRequest struct {
	AccountID         *string          `json:"account_id,omitempty"`
	Type              *string          `json:"type,omitempty"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	Date              *string          `json:"date,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Category          *string          `json:"category,omitempty"`
	IsRecurring       *bool            `json:"is_recurring,omitempty"`
	RecurringInterval *string          `json:"recurring_interval,omitempty"`
}

// BulkDeleteTransactionsRequest represents the request body for bulk transaction deletion.
type BulkDeleteTransactionsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// TransactionAccountResponse represents account information in transaction responses.
type TransactionAccountResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Balance   json.Number `json:"balance"`
	IsDefault bool        `json:"is_default"`
}

// TransactionResponse represents a single transaction in API responses.
type TransactionResponse struct {
	ID                string                      `json:"id"`
	UserID            string                      `json:"user_id"`
	AccountID         string                      `json:"account_id"`
	Type              string                      `json:"type"`
	Amount            json.Number                 `json:"amount"`
	Date              time.Time                   `json:"date"`
	Description       string                      `json:"description"`
	Category          string                      `json:"category"`
	IsRecurring       bool                        `json:"is_recurring"`
	RecurringInterval *string                     `json:"recurring_interval,omitempty"`
	NextRecurringDate *time.Time                  `json:"next_recurring_date,omitempty"`
	LastProcessedAt   *time.Time                  `json:"last_processed_at,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
	Account           *TransactionAccountResponse `json:"account,omitempty"`
}

// TransactionListResponse represents the response for listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// BulkDeleteTransactionsResponse represents the response for bulk transaction deletion.
type BulkDeleteTransactionsResponse struct {
	DeletedCount int `json:"deleted_count"`
}

// ToTransactionResponse converts a TransactionOutput to a TransactionResponse DTO.
func ToTransactionResponse(txn *transaction.TransactionOutput) TransactionResponse {
	response := TransactionResponse{
		ID:                txn.ID.String(),
		UserID:            txn.UserID.String(),
		AccountID:         txn.AccountID.String(),
		Type:              string(txn.Type),
		Amount:            Money(txn.Amount),
		Date:              txn.Date,
		Description:       txn.Description,
		Category:          txn.Category,
		IsRecurring:       txn.IsRecurring,
		NextRecurringDate: txn.NextRecurringDate,
		LastProcessedAt:   txn.LastProcessedAt,
		CreatedAt:         txn.CreatedAt,
		UpdatedAt:         txn.UpdatedAt,
	}

	if txn.RecurringInterval != nil {
		interval := string(*txn.RecurringInterval)
		response.RecurringInterval = &interval
	}

	if txn.Account != nil {
		response.Account = &TransactionAccountResponse{
			ID:        txn.Account.ID.String(),
			Name:      txn.Account.Name,
			Type:      string(txn.Account.Type),
			Balance:   Money(txn.Account.Balance),
			IsDefault: txn.Account.IsDefault,
		}
	}

	return response
}

// ToTransactionListResponse converts a ListTransactionsOutput to a TransactionListResponse DTO.
func ToTransactionListResponse(output *transaction.ListTransactionsOutput) TransactionListResponse {
	transactions := make([]TransactionResponse, len(output.Transactions))
	for i, txn := range output.Transactions {
		transactions[i] = ToTransactionResponse(txn)
	}
	return TransactionListResponse{Transactions: transactions}
}

// ParseDate accepts a date-only value or an RFC3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	if date, err := time.Parse(DateLayout, value); err == nil {
		return date, nil
	}
	return time.Parse(time.RFC3339, value)
}
