// Package access contains the admission check shared by mutating use cases.
package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// Admit asks the gate for requested units on behalf of userID.
// A nil gate admits everything. Denials are returned as *domainerror.GateError.
func Admit(ctx context.Context, gate adapter.AdmissionGate, userID uuid.UUID, requested int) error {
	if gate == nil {
		return nil
	}

	decision, err := gate.Protect(ctx, userID, requested)
	if err != nil {
		return fmt.Errorf("failed to evaluate admission: %w", err)
	}
	if decision.Allowed {
		return nil
	}

	if decision.Reason == adapter.DenialRateLimit {
		slog.Warn("Request rate limited",
			"userID", userID,
			"remaining", decision.Remaining,
			"resetAt", decision.ResetAt,
		)
		gateErr := domainerror.NewGateError(
			domainerror.ErrCodeGateRateLimited,
			"too many requests, please try again later",
			domainerror.ErrRateLimited,
		)
		gateErr.Remaining = decision.Remaining
		gateErr.ResetAt = decision.ResetAt
		return gateErr
	}

	slog.Warn("Request blocked by policy", "userID", userID)
	return domainerror.NewGateError(
		domainerror.ErrCodeGateBlocked,
		"request blocked",
		domainerror.ErrBlocked,
	)
}
