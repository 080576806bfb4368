package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ViewCache stores rendered read views and invalidates them after ledger writes.
type ViewCache interface {
	// Get loads a cached view into dest. It returns false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a view under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// InvalidateDashboard drops the cached dashboard of a user.
	InvalidateDashboard(ctx context.Context, userID uuid.UUID) error

	// InvalidateAccount drops the cached view of an account.
	InvalidateAccount(ctx context.Context, accountID uuid.UUID) error
}

// DashboardCacheKey returns the cache key of a user's dashboard view.
func DashboardCacheKey(userID uuid.UUID) string {
	return "view:dashboard:" + userID.String()
}

// AccountCacheKey returns the cache key of an account view.
func AccountCacheKey(accountID uuid.UUID) string {
	return "view:account:" + accountID.String()
}
