package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/cache"
	tagsrepo "github.com/gradlink/gradlink-backend/internal/data/repos/tags"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("dev")
	if err != nil {
		tb.Fatalf("logger.New: %v", err)
	}
	tb.Cleanup(log.Sync)
	return log
}

// memStore is an in-process cache.Store for service tests.
type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return "", context.DeadlineExceeded
	}
	v, ok := m.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return context.DeadlineExceeded
	}
	m.values[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

// fakeSimilarityRepo serves pair similarities from a canonical-key map.
type fakeSimilarityRepo struct {
	mu       sync.Mutex
	pairs    map[[2]uuid.UUID]float64
	getCalls int
	failAll  bool
}

func newFakeSimilarityRepo() *fakeSimilarityRepo {
	return &fakeSimilarityRepo{pairs: map[[2]uuid.UUID]float64{}}
}

func (f *fakeSimilarityRepo) put(a, b uuid.UUID, sim float64) {
	lo, hi := types.CanonicalPair(a, b)
	f.mu.Lock()
	f.pairs[[2]uuid.UUID{lo, hi}] = sim
	f.mu.Unlock()
}

func (f *fakeSimilarityRepo) GetPair(_ dbctx.Context, a, b uuid.UUID) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failAll {
		return 0, false, context.DeadlineExceeded
	}
	if a == b {
		return 1.0, true, nil
	}
	lo, hi := types.CanonicalPair(a, b)
	sim, ok := f.pairs[[2]uuid.UUID{lo, hi}]
	if !ok {
		return 0, false, nil
	}
	return sim, true, nil
}

func (f *fakeSimilarityRepo) Upsert(_ dbctx.Context, a, b uuid.UUID, sim float64) error {
	f.put(a, b, sim)
	return nil
}

func (f *fakeSimilarityRepo) FindSimilarByTagID(_ dbctx.Context, tagID uuid.UUID, minSimilarity float64) ([]tagsrepo.SimilarTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tagsrepo.SimilarTag
	for key, sim := range f.pairs {
		if sim < minSimilarity {
			continue
		}
		switch tagID {
		case key[0]:
			out = append(out, tagsrepo.SimilarTag{TagID: key[1], Similarity: sim})
		case key[1]:
			out = append(out, tagsrepo.SimilarTag{TagID: key[0], Similarity: sim})
		}
	}
	return out, nil
}

func affinity(userID, tagID uuid.UUID, priority int) *types.TagAffinity {
	return &types.TagAffinity{ID: uuid.New(), UserID: userID, TagID: tagID, Priority: priority}
}
