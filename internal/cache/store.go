package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss marks a key absent from the backing store. Every other error
// from a Store is infrastructure failure; cache consumers treat both as
// a miss and never surface them.
var ErrMiss = errors.New("cache miss")

// Store is the minimal key/value surface the caches need. The production
// implementation is Redis; tests swap in an in-memory fake.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
