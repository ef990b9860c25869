package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

// DefaultSimilarityTTL is long-lived because the similarity graph
// changes far less often than identity rows.
const DefaultSimilarityTTL = 24 * time.Hour

// SimilarityCache holds pairwise tag similarities under order-independent
// keys. A backing failure is logged and reported as a miss; callers fall
// back to the similarity store.
type SimilarityCache struct {
	log   *logger.Logger
	store Store
	ttl   time.Duration
}

func NewSimilarityCache(store Store, log *logger.Logger, ttl time.Duration) *SimilarityCache {
	if ttl <= 0 {
		ttl = DefaultSimilarityTTL
	}
	return &SimilarityCache{
		log:   log.With("service", "SimilarityCache"),
		store: store,
		ttl:   ttl,
	}
}

// similarityKey canonicalizes the pair by lexicographic order, so
// (a, b) and (b, a) address the same entry.
func similarityKey(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("tag_sim:%s:%s", lo, hi)
}

func (c *SimilarityCache) Get(ctx context.Context, a, b uuid.UUID) (float64, bool) {
	if c == nil || c.store == nil {
		return 0, false
	}
	raw, err := c.store.Get(ctx, similarityKey(a, b))
	if err != nil {
		if err != ErrMiss {
			c.log.Warn("similarity cache read failed, treating as miss", "error", err)
		}
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.log.Warn("similarity cache entry unparsable, treating as miss", "error", err)
		return 0, false
	}
	return val, true
}

// Set writes the pair once; the canonical key makes Set(a, a, v) a
// single write.
func (c *SimilarityCache) Set(ctx context.Context, a, b uuid.UUID, similarity float64) {
	if c == nil || c.store == nil {
		return
	}
	raw := strconv.FormatFloat(similarity, 'f', -1, 64)
	if err := c.store.Set(ctx, similarityKey(a, b), raw, c.ttl); err != nil {
		c.log.Warn("similarity cache write failed", "error", err)
	}
}

// Invalidate is intentionally lazy: similarity entries are not
// enumerable without scan support, so a graph change is absorbed by TTL
// expiry. The bounded staleness window equals the TTL.
func (c *SimilarityCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	c.log.Info("similarity graph changed; entries will lapse via TTL", "ttl", c.ttl.String())
}
