package auth

import (
	"context"
	"fmt"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
)

// LogoutUserInput represents the input for user logout.
type LogoutUserInput struct {
	RefreshToken string
}

// LogoutUserUseCase ends a session.
type LogoutUserUseCase struct {
	sessions adapter.SessionIssuer
}

// NewLogoutUserUseCase creates a new LogoutUserUseCase instance.
func NewLogoutUserUseCase(sessions adapter.SessionIssuer) *LogoutUserUseCase {
	return &LogoutUserUseCase{sessions: sessions}
}

// Execute revokes the refresh token. Logging out twice is not an error.
func (uc *LogoutUserUseCase) Execute(ctx context.Context, input LogoutUserInput) error {
	if err := uc.sessions.Revoke(ctx, input.RefreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}
