// Package error defines domain-specific errors for the ledger API.
package error

import "errors"

// Transaction domain errors.
var (
	// ErrTransactionNotFound is returned when a transaction does not exist or belongs to another user.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAccountNotFound is returned when an account does not exist or belongs to another user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnauthenticated is returned when a ledger operation runs without a caller.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidTransactionType is returned when the transaction type is not INCOME or EXPENSE.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidTransactionDate is returned when the transaction date is missing.
	ErrInvalidTransactionDate = errors.New("invalid transaction date")

	// ErrInvalidTransactionAmount is returned when the amount is negative.
	ErrInvalidTransactionAmount = errors.New("invalid transaction amount")

	// ErrInvalidRecurringInterval is returned when the recurring interval is unknown.
	ErrInvalidRecurringInterval = errors.New("invalid recurring interval")

	// ErrDescriptionTooLong is returned when the transaction description exceeds the maximum length.
	ErrDescriptionTooLong = errors.New("description too long")

	// ErrEmptyTransactionIDs is returned when an empty list of transaction IDs is provided.
	ErrEmptyTransactionIDs = errors.New("transaction IDs list cannot be empty")

	// ErrTransactionIDsNotFound is returned when one or more transaction IDs are not found.
	ErrTransactionIDsNotFound = errors.New("one or more transactions not found")

	// ErrConcurrentModification is returned when a ledger row changed between read and write.
	ErrConcurrentModification = errors.New("transaction was modified concurrently")
)

// TransactionErrorCode defines error codes for transaction errors.
// Format: TXN-XXYYYY where XX is category and YYYY is specific error.
type TransactionErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidTransactionType   TransactionErrorCode = "TXN-010001"
	ErrCodeInvalidTransactionDate   TransactionErrorCode = "TXN-010002"
	ErrCodeInvalidTransactionAmount TransactionErrorCode = "TXN-010003"
	ErrCodeInvalidRecurringInterval TransactionErrorCode = "TXN-010004"
	ErrCodeDescriptionTooLong       TransactionErrorCode = "TXN-010005"
	ErrCodeMissingTransactionFields TransactionErrorCode = "TXN-010006"
	ErrCodeEmptyTransactionIDs      TransactionErrorCode = "TXN-010007"

	// Not found errors (02XXXX)
	ErrCodeTransactionNotFound    TransactionErrorCode = "TXN-020001"
	ErrCodeTxnAccountNotFound     TransactionErrorCode = "TXN-020002"
	ErrCodeTxnUserNotFound        TransactionErrorCode = "TXN-020003"
	ErrCodeTransactionIDsNotFound TransactionErrorCode = "TXN-020004"

	// Authorization errors (03XXXX)
	ErrCodeTxnUnauthenticated TransactionErrorCode = "TXN-030001"

	// Conflict errors (04XXXX)
	ErrCodeConcurrentModification TransactionErrorCode = "TXN-040001"
)

// TransactionError represents a transaction error with code and message.
type TransactionError struct {
	Code    TransactionErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// NewTransactionError creates a new TransactionError with the given code and message.
func NewTransactionError(code TransactionErrorCode, message string, err error) *TransactionError {
	return &TransactionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
