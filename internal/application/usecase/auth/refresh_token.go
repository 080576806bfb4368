package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// RefreshTokenInput represents the input for token refresh.
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenUseCase trades a refresh token for a new session.
type RefreshTokenUseCase struct {
	sessions adapter.SessionIssuer
}

// NewRefreshTokenUseCase creates a new RefreshTokenUseCase instance.
func NewRefreshTokenUseCase(sessions adapter.SessionIssuer) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{sessions: sessions}
}

// Execute rotates input.RefreshToken. The old token stops working even if the
// caller never receives the new session.
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, input RefreshTokenInput) (*adapter.Session, error) {
	session, err := uc.sessions.Rotate(ctx, input.RefreshToken)
	if errors.Is(err, domainerror.ErrRefreshTokenRejected) {
		return nil, domainerror.NewAuthError(domainerror.ErrCodeInvalidToken, "invalid or expired refresh token", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return session, nil
}
