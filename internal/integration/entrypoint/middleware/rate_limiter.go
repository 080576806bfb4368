package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/dto"
)

// window counts the requests of one client inside a fixed interval.
type window struct {
	used     int
	resetsAt time.Time
}

// RateLimiter throttles unauthenticated endpoints such as login per client IP
// with fixed windows. Authenticated ledger traffic goes through the admission
// gate instead.
type RateLimiter struct {
	limit   int
	period  time.Duration
	enabled bool
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*window
}

// NewRateLimiter allows limit requests per period and client IP.
// A disabled limiter lets every request through.
func NewRateLimiter(limit int, period time.Duration, enabled bool) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		enabled: enabled,
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

// Middleware answers 429 with Retry-After once the caller's window is spent.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.enabled {
			c.Next()
			return
		}

		wait, ok := rl.take(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many attempts, try again later",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			return
		}
		c.Next()
	}
}

// take spends one request of key's window. When none is left it reports how
// long until the window resets.
func (rl *RateLimiter) take(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.entries[key]
	if !ok || !now.Before(w.resetsAt) {
		w = &window{resetsAt: now.Add(rl.period)}
		rl.entries[key] = w
	}
	if w.used >= rl.limit {
		return w.resetsAt.Sub(now), false
	}
	w.used++
	return 0, true
}

// Cleanup forgets windows that have already reset.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.entries {
		if !now.Before(w.resetsAt) {
			delete(rl.entries, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
