package auth

import (
	"context"
	"fmt"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// LoginUserInput represents the input for user login.
type LoginUserInput struct {
	Email    string
	Password string
}

// LoginUserOutput is the signed-in user and their new session.
type LoginUserOutput struct {
	User    *entity.User
	Session *adapter.Session
}

// LoginUserUseCase exchanges credentials for a session.
type LoginUserUseCase struct {
	users    adapter.UserRepository
	hasher   adapter.PasswordHasher
	sessions adapter.SessionIssuer
}

// NewLoginUserUseCase creates a new LoginUserUseCase instance.
func NewLoginUserUseCase(users adapter.UserRepository, hasher adapter.PasswordHasher, sessions adapter.SessionIssuer) *LoginUserUseCase {
	return &LoginUserUseCase{users: users, hasher: hasher, sessions: sessions}
}

// Execute answers unknown emails and wrong passwords with the same error.
func (uc *LoginUserUseCase) Execute(ctx context.Context, input LoginUserInput) (*LoginUserOutput, error) {
	email, ok := normalizeEmail(input.Email)
	if !ok {
		return nil, invalidCredentialsError()
	}
	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentialsError()
	}
	if err := uc.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, invalidCredentialsError()
	}

	session, err := uc.sessions.Issue(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &LoginUserOutput{User: user, Session: session}, nil
}

func invalidCredentialsError() error {
	return domainerror.NewAuthError(domainerror.ErrCodeInvalidCredentials, "invalid email or password", domainerror.ErrInvalidCredentials)
}
