package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/usecase/account"
)

// CreateAccountRequest represents the request body for account creation.
type CreateAccountRequest struct {
	Name           string           `json:"name" binding:"required"`
	Type           string           `json:"type"`
	OpeningBalance *decimal.Decimal `json:"opening_balance,omitempty"`
	IsDefault      bool             `json:"is_default"`
}

// AccountResponse represents a single account in API responses.
type AccountResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Balance   json.Number `json:"balance"`
	IsDefault bool        `json:"is_default"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AccountListResponse represents the response for listing accounts.
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountTransactionResponse represents a transaction inside an account view.
type AccountTransactionResponse struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	IsRecurring bool        `json:"is_recurring"`
}

// AccountDetailResponse represents an account with its transactions.
type AccountDetailResponse struct {
	Account      AccountResponse              `json:"account"`
	Transactions []AccountTransactionResponse `json:"transactions"`
}

// ToAccountResponse converts an AccountOutput to an AccountResponse DTO.
func ToAccountResponse(output *account.AccountOutput) AccountResponse {
	return AccountResponse{
		ID:        output.ID.String(),
		Name:      output.Name,
		Type:      string(output.Type),
		Balance:   Money(output.Balance),
		IsDefault: output.IsDefault,
		CreatedAt: output.CreatedAt,
		UpdatedAt: output.UpdatedAt,
	}
}

// ToAccountListResponse converts a ListAccountsOutput to an AccountListResponse DTO.
func ToAccountListResponse(output *account.ListAccountsOutput) AccountListResponse {
	accounts := make([]AccountResponse, len(output.Accounts))
	for i, acc := range output.Accounts {
		accounts[i] = ToAccountResponse(acc)
	}
	return AccountListResponse{Accounts: accounts}
}

// ToAccountDetailResponse converts a GetAccountOutput to an AccountDetailResponse DTO.
func ToAccountDetailResponse(output *account.GetAccountOutput) AccountDetailResponse {
	transactions := make([]AccountTransactionResponse, len(output.Transactions))
	for i, txn := range output.Transactions {
		transactions[i] = AccountTransactionResponse{
			ID:          txn.ID.String(),
			Type:        string(txn.Type),
			Amount:      Money(txn.Amount),
			Date:        txn.Date,
			Description: txn.Description,
			Category:    txn.Category,
			IsRecurring: txn.IsRecurring,
		}
	}
	return AccountDetailResponse{
		Account:      ToAccountResponse(output.Account),
		Transactions: transactions,
	}
}
