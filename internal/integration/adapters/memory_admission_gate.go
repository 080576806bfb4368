package adapters

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
)

type window struct {
	start time.Time
	used  int
}

// MemoryAdmissionGate is an in-process fixed window limiter.
// It is used when Redis is not configured and only limits a single instance.
type MemoryAdmissionGate struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	windows map[uuid.UUID]*window
	blocked map[uuid.UUID]struct{}
	now     func() time.Time
}

// NewMemoryAdmissionGate creates a gate allowing limit units per period to each user.
func NewMemoryAdmissionGate(limit int, period time.Duration) *MemoryAdmissionGate {
	return &MemoryAdmissionGate{
		limit:   limit,
		period:  period,
		windows: make(map[uuid.UUID]*window),
		blocked: make(map[uuid.UUID]struct{}),
		now:     time.Now,
	}
}

var _ adapter.AdmissionGate = (*MemoryAdmissionGate)(nil)

// Protect consumes requested units from the user's current window.
func (g *MemoryAdmissionGate) Protect(ctx context.Context, userID uuid.UUID, requested int) (*adapter.AdmissionDecision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.blocked[userID]; ok {
		return &adapter.AdmissionDecision{Reason: adapter.DenialPolicy}, nil
	}

	now := g.now()
	w, ok := g.windows[userID]
	if !ok || !now.Before(w.start.Add(g.period)) {
		w = &window{start: now}
		g.windows[userID] = w
	}

	decision := &adapter.AdmissionDecision{ResetAt: w.start.Add(g.period)}
	if w.used+requested > g.limit {
		decision.Reason = adapter.DenialRateLimit
		decision.Remaining = int64(g.limit - w.used)
		return decision, nil
	}

	w.used += requested
	decision.Allowed = true
	decision.Remaining = int64(g.limit - w.used)
	return decision, nil
}

// Block denies every future request of userID.
func (g *MemoryAdmissionGate) Block(ctx context.Context, userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocked[userID] = struct{}{}
	return nil
}

// Unblock lifts a policy block.
func (g *MemoryAdmissionGate) Unblock(ctx context.Context, userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.blocked, userID)
	return nil
}

// Cleanup forgets windows that have already reset. Policy blocks are kept.
func (g *MemoryAdmissionGate) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for userID, w := range g.windows {
		if !now.Before(w.start.Add(g.period)) {
			delete(g.windows, userID)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (g *MemoryAdmissionGate) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.Cleanup()
		}
	}
}
