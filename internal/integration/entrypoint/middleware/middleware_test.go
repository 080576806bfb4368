package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/dto"
)

type stubSessions struct {
	adapter.SessionIssuer
	userID uuid.UUID
}

func (s *stubSessions) Authenticate(ctx context.Context, token string) (*adapter.Principal, error) {
	switch token {
	case "good":
		return &adapter.Principal{UserID: s.userID, Email: "user@example.com"}, nil
	case "stale":
		return nil, domainerror.ErrTokenExpired
	}
	return nil, domainerror.ErrInvalidToken
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	auth := NewAuthMiddleware(&stubSessions{userID: userID})

	router := gin.New()
	router.GET("/me", auth.Authenticate(), func(c *gin.Context) {
		id, _ := GetUserIDFromContext(c)
		c.String(http.StatusOK, id.String())
	})

	tests := []struct {
		name   string
		header string
		status int
		code   domainerror.AuthErrorCode
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized, code: domainerror.ErrCodeMissingToken},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, code: domainerror.ErrCodeMissingToken},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized, code: domainerror.ErrCodeMissingToken},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized, code: domainerror.ErrCodeInvalidToken},
		{name: "expired token", header: "Bearer stale", status: http.StatusUnauthorized, code: domainerror.ErrCodeExpiredToken},
		{name: "valid token", header: "Bearer good", status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK {
				if rec.Body.String() != userID.String() {
					t.Errorf("user in context = %s, want %s", rec.Body.String(), userID)
				}
				return
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != string(tt.code) {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(2, time.Minute, true)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := gin.New()
	router.POST("/login", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d status = %d, want 200", i+1, rec.Code)
		}
	}

	now = now.Add(20 * time.Second)
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "40" {
		t.Errorf("Retry-After = %q, want 40", got)
	}

	now = now.Add(time.Minute)
	if rec := do(); rec.Code != http.StatusOK {
		t.Errorf("attempt after window status = %d, want 200", rec.Code)
	}

	now = now.Add(2 * time.Minute)
	limiter.Cleanup()
	if len(limiter.entries) != 0 {
		t.Errorf("entries after cleanup = %d, want 0", len(limiter.entries))
	}

	disabled := NewRateLimiter(0, time.Minute, false)
	router = gin.New()
	router.POST("/login", disabled.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	if rec := do(); rec.Code != http.StatusOK {
		t.Errorf("disabled limiter status = %d, want 200", rec.Code)
	}
}
