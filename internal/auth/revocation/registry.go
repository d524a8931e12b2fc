// Package revocation tracks tokens that were invalidated before their
// natural expiry. Entries are keyed by the token's jti claim and never
// outlive the token they revoke: once the token would fail verification on
// expiry alone, the entry is dead weight and gets dropped.
package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/campusfound/campusfound/pkg/jwtx"
	"github.com/campusfound/campusfound/pkg/slogx"
)

// Revocation reasons recorded on each entry.
const (
	ReasonRotation = "rotation"
	ReasonLogout   = "user_logout"
)

// Registry answers "has this token been revoked" and records revocations.
// A single-process deployment uses the in-memory backend; multi-process
// deployments front the same contract with Redis.
type Registry interface {
	// Revoke marks the token's jti as revoked. It reports whether this call
	// newly revoked the token: a false return with nil error means either
	// the token was already revoked (a racing rotation lost) or it carries
	// no trackable jti / is already past its own expiry, in which case
	// natural expiry covers it.
	Revoke(ctx context.Context, token, reason string) (bool, error)

	// IsRevoked reports whether the token's jti has an active revocation
	// entry. Checked before signature verification on the hot path; both
	// checks reject independently.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// Sweep removes entries whose expiry has passed and returns how many
	// were dropped. Backends with native TTL expiry may make this a no-op.
	Sweep(ctx context.Context) (int, error)

	// Ping verifies the backend is reachable. Used by readiness probes.
	Ping(ctx context.Context) error
}

type entry struct {
	expiresAt time.Time
	reason    string
	revokedAt time.Time
}

// Memory is the in-process Registry backend: a mutex-guarded map with lazy
// expiry on read plus periodic Sweep. Safe for concurrent use.
type Memory struct {
	codec *jwtx.Codec // used for DecodeUnsafe only

	fallbackTTL time.Duration
	now         func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

var _ Registry = (*Memory)(nil)

// NewMemory creates an in-memory registry. fallbackTTL bounds the entry
// lifetime for tokens whose exp claim cannot be read; pass the refresh token
// lifetime, the longest-lived token the registry can meet.
func NewMemory(codec *jwtx.Codec, fallbackTTL time.Duration) *Memory {
	if fallbackTTL <= 0 {
		fallbackTTL = jwtx.DefaultRefreshTTL
	}
	return &Memory{
		codec:       codec,
		fallbackTTL: fallbackTTL,
		now:         time.Now,
		entries:     make(map[string]entry),
	}
}

func (m *Memory) Revoke(ctx context.Context, token, reason string) (bool, error) {
	claims, ok := m.codec.DecodeUnsafe(token)
	if !ok || claims.ID == "" {
		// A token without an identifiable jti cannot be tracked. Degraded
		// but safe: it still expires naturally.
		slogx.FromContext(ctx).Warn("revocation skipped for untrackable token",
			"token_prefix", jwtx.TokenPrefix(token))
		return false, nil
	}

	now := m.now()
	expiresAt := now.Add(m.fallbackTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if !expiresAt.After(now) {
		// Already past its own expiry; verification rejects it anyway.
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, exists := m.entries[claims.ID]; exists && e.expiresAt.After(now) {
		return false, nil
	}

	m.entries[claims.ID] = entry{
		expiresAt: expiresAt,
		reason:    reason,
		revokedAt: now,
	}
	return true, nil
}

func (m *Memory) IsRevoked(ctx context.Context, token string) (bool, error) {
	claims, ok := m.codec.DecodeUnsafe(token)
	if !ok || claims.ID == "" {
		return false, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.entries[claims.ID]
	if !exists {
		return false, nil
	}

	// Lazy expiry: an entry past the token's own expiry no longer counts.
	return e.expiresAt.After(m.now()), nil
}

func (m *Memory) Sweep(ctx context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int
	for id, e := range m.entries {
		if !e.expiresAt.After(now) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds; the map lives in this process.
func (m *Memory) Ping(ctx context.Context) error { return nil }

// Len returns the number of entries currently held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
