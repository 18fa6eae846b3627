package midtrans

import (
	"context"
	"time"

	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/redis"
)

const (
	guardScope      = "midtrans-webhook"
	defaultGuardTTL = 24 * time.Hour
)

// IdempotencyGuard dedupes webhook redeliveries with a short-lived Redis key.
// The conditional updates in storage are the real correctness barrier, the
// guard only saves work on gateway retry storms.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewIdempotencyGuard wraps the store. A nil store disables the guard.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &IdempotencyGuard{store: store, ttl: ttl, logg: logg}
}

// Acquire claims the delivery id. It reports false only when another delivery
// with the same id already holds the claim. Redis trouble fails open: the
// delivery proceeds and storage-level idempotency catches any duplicate.
func (g *IdempotencyGuard) Acquire(ctx context.Context, deliveryID string) bool {
	if g == nil || g.store == nil || deliveryID == "" {
		return true
	}
	ok, err := g.store.SetNX(ctx, g.store.IdempotencyKey(guardScope, deliveryID), "1", g.ttl)
	if err != nil {
		if g.logg != nil {
			g.logg.Warn(ctx, "webhook idempotency guard unavailable, proceeding")
		}
		return true
	}
	return ok
}

// Release frees the claim so a retried delivery can be reprocessed after a
// downstream failure.
func (g *IdempotencyGuard) Release(ctx context.Context, deliveryID string) {
	if g == nil || g.store == nil || deliveryID == "" {
		return
	}
	if err := g.store.Del(ctx, g.store.IdempotencyKey(guardScope, deliveryID)); err != nil && g.logg != nil {
		g.logg.Warn(ctx, "webhook idempotency key release failed")
	}
}
