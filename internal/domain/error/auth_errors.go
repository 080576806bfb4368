package error

import "errors"

// Identity sentinels.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("malformed email address")
	ErrWeakPassword       = errors.New("password rejected by policy")
	ErrInvalidCredentials = errors.New("email or password mismatch")

	// ErrInvalidToken covers malformed and wrongly signed access tokens.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrRefreshTokenRejected is returned for refresh tokens that are forged,
	// expired, logged out or already rotated.
	ErrRefreshTokenRejected = errors.New("refresh token rejected")
)

// AuthErrorCode identifies an identity failure. Format: AUTH-CCNNNN.
type AuthErrorCode string

// Registration (01), login (02) and token (03) codes.
const (
	ErrCodeEmailExists   AuthErrorCode = "AUTH-010001"
	ErrCodeWeakPassword  AuthErrorCode = "AUTH-010003"
	ErrCodeInvalidEmail  AuthErrorCode = "AUTH-010004"
	ErrCodeMissingFields AuthErrorCode = "AUTH-010005"

	ErrCodeInvalidCredentials AuthErrorCode = "AUTH-020001"
	ErrCodeRateLimited        AuthErrorCode = "AUTH-020003"

	ErrCodeInvalidToken AuthErrorCode = "AUTH-030001"
	ErrCodeExpiredToken AuthErrorCode = "AUTH-030002"
	ErrCodeMissingToken AuthErrorCode = "AUTH-030003"
)

// AuthError is an identity failure safe to show to the caller.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError builds an AuthError wrapping err.
func NewAuthError(code AuthErrorCode, message string, err error) *AuthError {
	return &AuthError{Code: code, Message: message, Err: err}
}
