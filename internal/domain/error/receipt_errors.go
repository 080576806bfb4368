package error

import "errors"

// Receipt scan errors.
var (
	// ErrAIServiceNotConfigured is returned when no AI credential is configured.
	ErrAIServiceNotConfigured = errors.New("ai service is not configured")

	// ErrReceiptExtractionFailed is returned when the AI service call fails.
	ErrReceiptExtractionFailed = errors.New("receipt extraction failed")

	// ErrInvalidReceiptReply is returned when the AI reply is not a JSON object.
	ErrInvalidReceiptReply = errors.New("invalid JSON from receipt extraction")

	// ErrReceiptTooLarge is returned when the uploaded image exceeds the size limit.
	ErrReceiptTooLarge = errors.New("receipt image too large")

	// ErrEmptyReceipt is returned when no image bytes were supplied.
	ErrEmptyReceipt = errors.New("receipt image is empty")
)

// ReceiptErrorCode defines error codes for receipt scanning.
// Format: RCP-XXYYYY where XX is category and YYYY is specific error.
type ReceiptErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeEmptyReceipt    ReceiptErrorCode = "RCP-010001"
	ErrCodeReceiptTooLarge ReceiptErrorCode = "RCP-010002"

	// External service errors (02XXXX)
	ErrCodeAINotConfigured     ReceiptErrorCode = "RCP-020001"
	ErrCodeExtractionFailed    ReceiptErrorCode = "RCP-020002"
	ErrCodeInvalidReceiptReply ReceiptErrorCode = "RCP-020003"
)

// ReceiptError represents a receipt scanning error with code and message.
type ReceiptError struct {
	Code    ReceiptErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ReceiptError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ReceiptError) Unwrap() error {
	return e.Err
}

// NewReceiptError creates a new ReceiptError with the given code and message.
func NewReceiptError(code ReceiptErrorCode, message string, err error) *ReceiptError {
	return &ReceiptError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
