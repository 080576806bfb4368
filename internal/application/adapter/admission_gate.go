package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DenialReason explains why the gate refused a request.
type DenialReason string

const (
	DenialRateLimit DenialReason = "RATE_LIMIT"
	DenialPolicy    DenialReason = "POLICY"
)

// AdmissionDecision is the outcome of a gate check.
type AdmissionDecision struct {
	Allowed   bool
	Reason    DenialReason // Empty when Allowed
	Remaining int64
	ResetAt   time.Time
}

// AdmissionGate decides whether a caller may perform a costly or mutating action.
type AdmissionGate interface {
	// Protect consumes requested units from the caller's budget.
	Protect(ctx context.Context, userID uuid.UUID, requested int) (*AdmissionDecision, error)
}
