package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/domain/entity"
)

// UserRepository persists registered users.
type UserRepository interface {
	// Create inserts user. A taken email fails with domainerror.ErrEmailAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	// FindByID returns domainerror.ErrUserNotFound for unknown IDs.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail expects an already normalized email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PasswordHasher turns passwords into stored hashes and checks them back.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Compare returns nil when password matches hash.
	Compare(hash, password string) error

	// CheckPolicy rejects passwords too weak to be stored.
	CheckPolicy(password string) error
}

// Session is an issued access and refresh token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	// AccessExpiresAt is when AccessToken stops being accepted.
	AccessExpiresAt time.Time
}

// Principal is the caller an access token was issued to.
type Principal struct {
	UserID uuid.UUID
	Email  string
}

// SessionIssuer issues, verifies and ends user sessions.
type SessionIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, email string) (*Session, error)

	// Authenticate verifies an access token and returns its owner.
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)

	// Rotate consumes refreshToken and issues a new session for its owner.
	// A refresh token rotates at most once; later attempts fail with
	// domainerror.ErrRefreshTokenRejected, as do expired or forged tokens.
	Rotate(ctx context.Context, refreshToken string) (*Session, error)

	// Revoke ends the session of refreshToken. Unknown tokens are ignored.
	Revoke(ctx context.Context, refreshToken string) error
}
