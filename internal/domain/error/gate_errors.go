package error

import (
	"errors"
	"time"
)

// Admission gate errors.
var (
	// ErrRateLimited is returned when a caller exhausted its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBlocked is returned when a caller is denied by policy.
	ErrBlocked = errors.New("request blocked")
)

// GateErrorCode defines error codes for admission denials.
type GateErrorCode string

const (
	ErrCodeGateRateLimited GateErrorCode = "GATE-010001"
	ErrCodeGateBlocked     GateErrorCode = "GATE-010002"
)

// GateError represents a denial by the admission gate.
type GateError struct {
	Code      GateErrorCode
	Message   string
	Remaining int64
	ResetAt   time.Time
	Err       error
}

// Error implements the error interface.
func (e *GateError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *GateError) Unwrap() error {
	return e.Err
}

// NewGateError creates a new GateError.
func NewGateError(code GateErrorCode, message string, err error) *GateError {
	return &GateError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
