package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/campusfound/campusfound/pkg/jwtx"
	"github.com/campusfound/campusfound/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "campusfound:auth:revoked:"

// Redis is the shared Registry backend for deployments with more than one
// auth process. Entries expire via native Redis TTLs; first-wins semantics
// come from SET NX.
type Redis struct {
	client      *redis.Client
	codec       *jwtx.Codec
	fallbackTTL time.Duration
}

var _ Registry = (*Redis)(nil)

// NewRedis creates a Redis-backed registry with the same contract as Memory.
func NewRedis(client *redis.Client, codec *jwtx.Codec, fallbackTTL time.Duration) *Redis {
	if fallbackTTL <= 0 {
		fallbackTTL = jwtx.DefaultRefreshTTL
	}
	return &Redis{client: client, codec: codec, fallbackTTL: fallbackTTL}
}

func (r *Redis) Revoke(ctx context.Context, token, reason string) (bool, error) {
	claims, ok := r.codec.DecodeUnsafe(token)
	if !ok || claims.ID == "" {
		slogx.FromContext(ctx).Warn("revocation skipped for untrackable token",
			"token_prefix", jwtx.TokenPrefix(token))
		return false, nil
	}

	ttl := r.fallbackTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return false, nil
	}

	set, err := r.client.SetNX(ctx, redisKeyPrefix+claims.ID, reason, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: redis revoke: %w", err)
	}
	return set, nil
}

func (r *Redis) IsRevoked(ctx context.Context, token string) (bool, error) {
	claims, ok := r.codec.DecodeUnsafe(token)
	if !ok || claims.ID == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, redisKeyPrefix+claims.ID).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: redis lookup: %w", err)
	}
	return n > 0, nil
}

// Sweep is a no-op for Redis; keys expire natively.
func (r *Redis) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("revocation: redis ping: %w", err)
	}
	return nil
}
