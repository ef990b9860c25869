package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type fakeStore struct {
	mu       sync.Mutex
	entries  map[string]string
	setCalls int
	failAll  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]string{}}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return "", errors.New("store down")
	}
	val, ok := s.entries[key]
	if !ok {
		return "", ErrMiss
	}
	return val, nil
}

func (s *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	s.setCalls++
	s.entries[key] = value
	return nil
}

func (s *fakeStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	if s.failAll {
		return errors.New("store down")
	}
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestSimilarityCacheSymmetry(t *testing.T) {
	store := newFakeStore()
	c := NewSimilarityCache(store, testLogger(t), 0)
	ctx := context.Background()

	a := uuid.New()
	b := uuid.New()

	c.Set(ctx, a, b, 0.42)

	got, ok := c.Get(ctx, b, a)
	if !ok {
		t.Fatalf("Get(b, a): expected hit after Set(a, b)")
	}
	if got != 0.42 {
		t.Fatalf("Get(b, a): want=0.42 got=%v", got)
	}

	got, ok = c.Get(ctx, a, b)
	if !ok || got != 0.42 {
		t.Fatalf("Get(a, b): want=(0.42, true) got=(%v, %v)", got, ok)
	}
}

func TestSimilarityCacheSelfPairSingleWrite(t *testing.T) {
	store := newFakeStore()
	c := NewSimilarityCache(store, testLogger(t), 0)
	ctx := context.Background()

	a := uuid.New()
	c.Set(ctx, a, a, 1.0)

	if store.setCalls != 1 {
		t.Fatalf("Set(a, a): want 1 underlying write, got %d", store.setCalls)
	}
	if got, ok := c.Get(ctx, a, a); !ok || got != 1.0 {
		t.Fatalf("Get(a, a): want=(1.0, true) got=(%v, %v)", got, ok)
	}
}

func TestSimilarityCacheBackingFailureIsMiss(t *testing.T) {
	store := newFakeStore()
	c := NewSimilarityCache(store, testLogger(t), 0)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	c.Set(ctx, a, b, 0.9)

	store.failAll = true
	if _, ok := c.Get(ctx, a, b); ok {
		t.Fatalf("Get with failing store: expected miss")
	}
	// Writes against a failing store must not panic or error out.
	c.Set(ctx, a, b, 0.5)
}

func TestSimilarityCacheUnparsableEntryIsMiss(t *testing.T) {
	store := newFakeStore()
	c := NewSimilarityCache(store, testLogger(t), 0)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	store.entries[similarityKey(a, b)] = "not-a-float"

	if _, ok := c.Get(ctx, a, b); ok {
		t.Fatalf("Get with garbage entry: expected miss")
	}
}

func TestIdentityCacheRoundTripAndEvict(t *testing.T) {
	store := newFakeStore()
	c := NewIdentityCache(store, testLogger(t), 0)
	ctx := context.Background()

	userID := uuid.New()
	projection := &types.UserProjection{
		UserID:    userID,
		Email:     "student@example.com",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleStudent,
		ProfileID: uuid.New(),
	}

	c.Set(ctx, userID, projection)

	got, ok := c.Get(ctx, userID)
	if !ok {
		t.Fatalf("Get after Set: expected hit")
	}
	if got.UserID != userID || got.Role != types.RoleStudent {
		t.Fatalf("Get: unexpected projection %+v", got)
	}

	c.Evict(ctx, userID)
	if _, ok := c.Get(ctx, userID); ok {
		t.Fatalf("Get after Evict: expected miss")
	}
}

func TestIdentityCacheHealthy(t *testing.T) {
	store := newFakeStore()
	c := NewIdentityCache(store, testLogger(t), 0)
	ctx := context.Background()

	if !c.Healthy(ctx) {
		t.Fatalf("Healthy: expected true with working store")
	}
	store.failAll = true
	if c.Healthy(ctx) {
		t.Fatalf("Healthy: expected false with failing store")
	}
}
