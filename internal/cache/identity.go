package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

const DefaultIdentityTTL = 20 * time.Minute

const healthCheckKey = "health_check"

// IdentityCache holds filtered user projections keyed by identity id.
// Entries are evicted by the change listener when identity rows mutate;
// the TTL bounds staleness when the listener is down.
type IdentityCache struct {
	log   *logger.Logger
	store Store
	ttl   time.Duration
}

func NewIdentityCache(store Store, log *logger.Logger, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = DefaultIdentityTTL
	}
	return &IdentityCache{
		log:   log.With("service", "IdentityCache"),
		store: store,
		ttl:   ttl,
	}
}

func identityKey(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func (c *IdentityCache) Get(ctx context.Context, userID uuid.UUID) (*types.UserProjection, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, identityKey(userID))
	if err != nil {
		if err != ErrMiss {
			c.log.Warn("identity cache read failed, treating as miss", "error", err)
		}
		return nil, false
	}
	var projection types.UserProjection
	if err := json.Unmarshal([]byte(raw), &projection); err != nil {
		c.log.Warn("identity cache entry unparsable, treating as miss", "error", err)
		return nil, false
	}
	return &projection, true
}

func (c *IdentityCache) Set(ctx context.Context, userID uuid.UUID, projection *types.UserProjection) {
	if c == nil || c.store == nil || projection == nil {
		return
	}
	raw, err := json.Marshal(projection)
	if err != nil {
		c.log.Warn("identity projection marshal failed", "error", err)
		return
	}
	if err := c.store.Set(ctx, identityKey(userID), string(raw), c.ttl); err != nil {
		c.log.Warn("identity cache write failed", "error", err)
	}
}

// Evict removes one identity entry. Used by the change listener and by
// the admin invalidation endpoint that bypasses the notification path.
func (c *IdentityCache) Evict(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Del(ctx, identityKey(userID)); err != nil {
		c.log.Warn("identity cache evict failed", "user_id", userID.String(), "error", err)
	}
}

// Healthy issues the trivial round trip the health probe contract names.
func (c *IdentityCache) Healthy(ctx context.Context) bool {
	if c == nil || c.store == nil {
		return false
	}
	if err := c.store.Set(ctx, healthCheckKey, "ok", time.Minute); err != nil {
		return false
	}
	_, err := c.store.Get(ctx, healthCheckKey)
	return err == nil
}
