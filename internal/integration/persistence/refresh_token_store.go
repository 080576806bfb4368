package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledger-api/internal/integration/persistence/model"
)

// RefreshTokenRecord is a refresh token as stored: identified by the hash of its value.
type RefreshTokenRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

// RefreshTokenStore keeps the server-side state of refresh tokens.
type RefreshTokenStore interface {
	Save(ctx context.Context, record RefreshTokenRecord) error

	// Consume revokes the live token with tokenHash and reports whether it was
	// live. Of two concurrent calls for one token, exactly one sees true.
	Consume(ctx context.Context, tokenHash string, now time.Time) (bool, error)

	// Revoke marks the token revoked. Unknown or already revoked tokens are a no-op.
	Revoke(ctx context.Context, tokenHash string, now time.Time) error
}

type refreshTokenStore struct {
	db *gorm.DB
}

// NewRefreshTokenStore creates a RefreshTokenStore backed by the refresh_tokens table.
func NewRefreshTokenStore(db *gorm.DB) RefreshTokenStore {
	return &refreshTokenStore{db: db}
}

func (s *refreshTokenStore) Save(ctx context.Context, record RefreshTokenRecord) error {
	return s.db.WithContext(ctx).Create(&model.RefreshTokenModel{
		ID:        record.ID,
		UserID:    record.UserID,
		TokenHash: record.TokenHash,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	}).Error
}

// Consume relies on a single conditional UPDATE, so no lock is held across calls.
func (s *refreshTokenStore) Consume(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("revoked_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *refreshTokenStore) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Update("revoked_at", now).Error
}
