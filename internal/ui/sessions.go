package ui

import (
	"time"

	"github.com/google/uuid"

	"finsheet/internal/cache"
)

// Sessions keeps one controller per browser page instance. Entries expire
// after a period of inactivity.
type Sessions[T any] struct {
	cache *cache.LRUCache[T]
}

func NewSessions[T any](maxEntries int, ttl time.Duration) *Sessions[T] {
	return &Sessions[T]{cache: cache.NewLRUCache[T](maxEntries, ttl)}
}

// NewSessionID returns a fresh page instance id.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the controller stored under id, creating it with create when
// absent or expired. created reports whether create ran.
func (s *Sessions[T]) Get(id string, create func() T) (ctrl T, created bool) {
	v, found := s.cache.GetOrSet(id, create)
	return v, !found
}

// Forget drops a session.
func (s *Sessions[T]) Forget(id string) {
	s.cache.Delete(id)
}

// Cache exposes the backing cache for periodic expiry.
func (s *Sessions[T]) Cache() *cache.LRUCache[T] {
	return s.cache
}

func (s *Sessions[T]) Len() int {
	return s.cache.Size()
}
