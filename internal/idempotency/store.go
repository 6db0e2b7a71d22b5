package idempotency

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"finsheet/internal/cache"
)

// DefaultMaxEntries bounds the number of remembered responses.
const DefaultMaxEntries = 1000

// Store remembers successful responses per key for a TTL and coalesces
// concurrent calls that carry the same key into one execution.
type Store struct {
	responses *cache.LRUCache[string]
	group     singleflight.Group
}

type result struct {
	resp   string
	cached bool
}

// NewStore creates a store keeping up to maxEntries responses for ttl.
func NewStore(maxEntries int, ttl time.Duration) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{responses: cache.NewLRUCache[string](maxEntries, ttl)}
}

// Cache exposes the response cache so a cache.Manager can expire it.
func (s *Store) Cache() *cache.LRUCache[string] { return s.responses }

// Do runs fn at most once per key within the TTL. duplicate is true when the
// response was produced by an earlier or concurrent call. An empty key
// always runs fn. Failed calls are not remembered.
func (s *Store) Do(ctx context.Context, key string, fn func(context.Context) (string, error)) (resp string, duplicate bool, err error) {
	if key == "" {
		resp, err = fn(ctx)
		return resp, false, err
	}
	if cached, ok := s.responses.Get(key); ok {
		return cached, true, nil
	}

	ran := false
	v, err, _ := s.group.Do(key, func() (any, error) {
		ran = true
		if cached, ok := s.responses.Get(key); ok {
			return result{resp: cached, cached: true}, nil
		}
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		s.responses.Set(key, out)
		return result{resp: out}, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(result)
	return r.resp, r.cached || !ran, nil
}

// Forget drops the remembered response for key.
func (s *Store) Forget(key string) {
	s.responses.Delete(key)
	s.group.Forget(key)
}
