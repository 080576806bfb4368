package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
)

// BlockedUsersKey is the Redis set holding users denied by policy.
const BlockedUsersKey = "gate:blocked"

// tokenBucketScript refills and consumes a per-user bucket in one round trip.
// KEYS: bucket hash, blocked set. ARGV: capacity, interval ms, now ms, requested, member.
// Returns {allowed (1, 0 or -1 when blocked), remaining tokens, ms until full}.
var tokenBucketScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[5]) == 1 then
  return {-1, 0, 0}
end

local capacity = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(capacity, tokens + elapsed * capacity / interval)

local allowed = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', KEYS[1], interval * 2)

local refill = math.ceil((capacity - tokens) * interval / capacity)
return {allowed, math.floor(tokens), refill}
`)

// RedisAdmissionGate is a per-user token bucket stored in Redis.
type RedisAdmissionGate struct {
	client   *redis.Client
	capacity int
	interval time.Duration
	now      func() time.Time
}

// NewRedisAdmissionGate creates a gate granting capacity units per interval to each user.
func NewRedisAdmissionGate(client *redis.Client, capacity int, interval time.Duration) *RedisAdmissionGate {
	return &RedisAdmissionGate{
		client:   client,
		capacity: capacity,
		interval: interval,
		now:      time.Now,
	}
}

var _ adapter.AdmissionGate = (*RedisAdmissionGate)(nil)

// Protect consumes requested units from the user's bucket.
func (g *RedisAdmissionGate) Protect(ctx context.Context, userID uuid.UUID, requested int) (*adapter.AdmissionDecision, error) {
	now := g.now()
	keys := []string{bucketKey(userID), BlockedUsersKey}
	result, err := tokenBucketScript.Run(ctx, g.client, keys,
		g.capacity,
		g.interval.Milliseconds(),
		now.UnixMilli(),
		requested,
		userID.String(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate token bucket: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected token bucket reply: %v", result)
	}

	decision := &adapter.AdmissionDecision{
		Remaining: result[1],
		ResetAt:   now.Add(time.Duration(result[2]) * time.Millisecond),
	}
	switch result[0] {
	case 1:
		decision.Allowed = true
	case -1:
		decision.Reason = adapter.DenialPolicy
	default:
		decision.Reason = adapter.DenialRateLimit
	}
	return decision, nil
}

// Block denies every future request of userID until Unblock is called.
func (g *RedisAdmissionGate) Block(ctx context.Context, userID uuid.UUID) error {
	return g.client.SAdd(ctx, BlockedUsersKey, userID.String()).Err()
}

// Unblock lifts a policy block.
func (g *RedisAdmissionGate) Unblock(ctx context.Context, userID uuid.UUID) error {
	return g.client.SRem(ctx, BlockedUsersKey, userID.String()).Err()
}

func bucketKey(userID uuid.UUID) string {
	return "gate:bucket:" + userID.String()
}
