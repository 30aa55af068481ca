package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/prostore-backend/pkg/redis"
)

// Guard claims a key once per TTL so duplicate deliveries of the same
// confirmation are dropped.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewGuard builds a guard namespaced by scope.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &Guard{store: store, ttl: ttl, scope: scope}, nil
}

// Claim returns true when the caller is the first to claim id.
func (g *Guard) Claim(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("guard id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, id), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return set, nil
}

// Release drops a claim so a failed attempt can be retried.
func (g *Guard) Release(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("guard id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, id))
}
