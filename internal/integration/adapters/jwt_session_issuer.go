package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence"
)

const sessionIssuer = "ledger-api"

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

// sessionClaims are the JWT claims of both token kinds. The subject is the user ID;
// refresh tokens also carry a unique ID so two issued in the same second differ.
type sessionClaims struct {
	Email string    `json:"email"`
	Kind  tokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// JWTSessionIssuer signs HS256 tokens and keeps refresh tokens in a RefreshTokenStore.
type JWTSessionIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      persistence.RefreshTokenStore
	now        func() time.Time
}

// NewJWTSessionIssuer creates a JWTSessionIssuer.
func NewJWTSessionIssuer(secret string, accessTTL, refreshTTL time.Duration, store persistence.RefreshTokenStore) *JWTSessionIssuer {
	return &JWTSessionIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a new token pair and records the refresh token.
func (s *JWTSessionIssuer) Issue(ctx context.Context, userID uuid.UUID, email string) (*adapter.Session, error) {
	now := s.now()

	accessExpiry := now.Add(s.accessTTL)
	accessToken, err := s.sign(userID, email, kindAccess, "", now, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshID := uuid.New()
	refreshExpiry := now.Add(s.refreshTTL)
	refreshToken, err := s.sign(userID, email, kindRefresh, refreshID.String(), now, refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	err = s.store.Save(ctx, persistence.RefreshTokenRecord{
		ID:        refreshID,
		UserID:    userID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: refreshExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &adapter.Session{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiry,
	}, nil
}

// Authenticate verifies an access token. Expired tokens fail with
// domainerror.ErrTokenExpired, anything else with domainerror.ErrInvalidToken.
func (s *JWTSessionIssuer) Authenticate(ctx context.Context, accessToken string) (*adapter.Principal, error) {
	claims, err := s.parse(accessToken, kindAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerror.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domainerror.ErrInvalidToken, err)
	}
	return principalOf(claims)
}

// Rotate trades a live refresh token for a new session.
func (s *JWTSessionIssuer) Rotate(ctx context.Context, refreshToken string) (*adapter.Session, error) {
	claims, err := s.parse(refreshToken, kindRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerror.ErrRefreshTokenRejected, err)
	}
	principal, err := principalOf(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerror.ErrRefreshTokenRejected, err)
	}

	consumed, err := s.store.Consume(ctx, hashToken(refreshToken), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !consumed {
		return nil, domainerror.ErrRefreshTokenRejected
	}

	return s.Issue(ctx, principal.UserID, principal.Email)
}

// Revoke ends the session of refreshToken without validating it.
func (s *JWTSessionIssuer) Revoke(ctx context.Context, refreshToken string) error {
	return s.store.Revoke(ctx, hashToken(refreshToken), s.now())
}

func (s *JWTSessionIssuer) sign(userID uuid.UUID, email string, kind tokenKind, id string, issuedAt, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    sessionIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTSessionIssuer) parse(raw string, kind tokenKind) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("expected a %s token, got %q", kind, claims.Kind)
	}
	return claims, nil
}

func principalOf(claims *sessionClaims) (*adapter.Principal, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("malformed subject: %w", err)
	}
	return &adapter.Principal{UserID: userID, Email: claims.Email}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
