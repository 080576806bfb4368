// Package auth contains the registration and session use cases.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// DefaultAccountName is the name of the account opened for every new user.
const DefaultAccountName = "Main"

// RegisterUserInput represents the input for user registration.
type RegisterUserInput struct {
	Email    string
	Name     string
	Password string
}

// RegisterUserOutput is the created user with a first session.
type RegisterUserOutput struct {
	User    *entity.User
	Session *adapter.Session
}

// RegisterUserUseCase registers a user and opens their default account.
type RegisterUserUseCase struct {
	users    adapter.UserRepository
	accounts adapter.AccountRepository
	hasher   adapter.PasswordHasher
	sessions adapter.SessionIssuer
}

// NewRegisterUserUseCase creates a new RegisterUserUseCase instance.
func NewRegisterUserUseCase(
	users adapter.UserRepository,
	accounts adapter.AccountRepository,
	hasher adapter.PasswordHasher,
	sessions adapter.SessionIssuer,
) *RegisterUserUseCase {
	return &RegisterUserUseCase{users: users, accounts: accounts, hasher: hasher, sessions: sessions}
}

// Execute validates the credentials, stores the user with a "Main" account and signs them in.
func (uc *RegisterUserUseCase) Execute(ctx context.Context, input RegisterUserInput) (*RegisterUserOutput, error) {
	email, ok := normalizeEmail(input.Email)
	if !ok {
		return nil, domainerror.NewAuthError(domainerror.ErrCodeInvalidEmail, "invalid email format", domainerror.ErrInvalidEmail)
	}
	if err := uc.hasher.CheckPolicy(input.Password); err != nil {
		return nil, domainerror.NewAuthError(domainerror.ErrCodeWeakPassword, err.Error(), domainerror.ErrWeakPassword)
	}

	taken, err := uc.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if taken {
		return nil, emailTakenError()
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := entity.NewUser(email, strings.TrimSpace(input.Name), hash)
	if err := uc.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, domainerror.ErrEmailAlreadyExists) {
			return nil, emailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	defaultAccount := entity.NewAccount(user.ID, DefaultAccountName, entity.AccountTypeCurrent, decimal.Zero, true)
	if err := uc.accounts.Create(ctx, defaultAccount); err != nil {
		return nil, fmt.Errorf("failed to open default account: %w", err)
	}

	session, err := uc.sessions.Issue(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &RegisterUserOutput{User: user, Session: session}, nil
}

func emailTakenError() error {
	return domainerror.NewAuthError(domainerror.ErrCodeEmailExists, "email already exists", domainerror.ErrEmailAlreadyExists)
}

// normalizeEmail lowercases a bare address and reports whether it is well formed.
// Display-name forms such as "Ada <ada@example.com>" are rejected.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", false
	}
	return email, true
}
