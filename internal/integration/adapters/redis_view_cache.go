package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
)

// InvalidationChannel is the pub/sub channel announcing invalidated views.
const InvalidationChannel = "cache:invalidate"

// InvalidationMessage is published on InvalidationChannel after a view is dropped.
type InvalidationMessage struct {
	Path   string `json:"path"`
	UserID string `json:"user_id,omitempty"`
}

// RedisViewCache stores JSON-encoded views in Redis.
type RedisViewCache struct {
	client *redis.Client
}

// NewRedisViewCache creates a Redis backed view cache.
func NewRedisViewCache(client *redis.Client) *RedisViewCache {
	return &RedisViewCache{client: client}
}

var _ adapter.ViewCache = (*RedisViewCache)(nil)

// Get loads a cached view into dest.
func (c *RedisViewCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached view %s: %w", key, err)
	}
	return true, nil
}

// Set stores a view under key for ttl.
func (c *RedisViewCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode view %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// InvalidateDashboard drops the user's dashboard and announces /dashboard.
func (c *RedisViewCache) InvalidateDashboard(ctx context.Context, userID uuid.UUID) error {
	return c.invalidate(ctx, adapter.DashboardCacheKey(userID), InvalidationMessage{
		Path:   "/dashboard",
		UserID: userID.String(),
	})
}

// InvalidateAccount drops the account view and announces /account/<id>.
func (c *RedisViewCache) InvalidateAccount(ctx context.Context, accountID uuid.UUID) error {
	return c.invalidate(ctx, adapter.AccountCacheKey(accountID), InvalidationMessage{
		Path: "/account/" + accountID.String(),
	})
}

func (c *RedisViewCache) invalidate(ctx context.Context, key string, message InvalidationMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.Publish(ctx, InvalidationChannel, payload)
		return nil
	})
	return err
}

// NoopViewCache never stores anything. It is used when Redis is not configured.
type NoopViewCache struct{}

var _ adapter.ViewCache = NoopViewCache{}

func (NoopViewCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (NoopViewCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (NoopViewCache) InvalidateDashboard(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (NoopViewCache) InvalidateAccount(ctx context.Context, accountID uuid.UUID) error {
	return nil
}
