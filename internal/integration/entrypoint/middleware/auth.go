// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/dto"
)

const principalKey = "principal"

// AuthMiddleware admits requests carrying a valid bearer access token.
type AuthMiddleware struct {
	sessions adapter.SessionIssuer
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(sessions adapter.SessionIssuer) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate rejects the request with 401 unless the access token verifies,
// then makes the caller available through GetUserIDFromContext.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, domainerror.ErrCodeMissingToken, "Bearer token is required")
			return
		}

		principal, err := m.sessions.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, domainerror.ErrTokenExpired):
			unauthorized(c, domainerror.ErrCodeExpiredToken, "Access token has expired")
			return
		case err != nil:
			unauthorized(c, domainerror.ErrCodeInvalidToken, "Invalid access token")
			return
		}

		WithPrincipal(c, *principal)
		c.Next()
	}
}

// WithPrincipal records the authenticated caller on c.
func WithPrincipal(c *gin.Context, principal adapter.Principal) {
	c.Set(principalKey, principal)
}

// GetUserIDFromContext returns the caller recorded by Authenticate.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	principal, ok := c.Value(principalKey).(adapter.Principal)
	if !ok {
		return uuid.Nil, false
	}
	return principal.UserID, true
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, code domainerror.AuthErrorCode, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: message, Code: string(code)})
}
