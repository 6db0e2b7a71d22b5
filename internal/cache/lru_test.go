package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSetDelete(t *testing.T) {
	c, _ := newTestCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("overwrite failed, got %q", v)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache[int](10, 5*time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.Advance(4 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired too early")
	}

	clock.Advance(2 * time.Minute)
	if removed := c.CleanExpired(); removed != 2 {
		t.Fatalf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_GetOrSet(t *testing.T) {
	c, clock := newTestCache[int](10, time.Minute)
	calls := 0
	create := func() int { calls++; return calls }

	v, found := c.GetOrSet("k", create)
	if found || v != 1 {
		t.Fatalf("first GetOrSet = %d, %v", v, found)
	}
	v, found = c.GetOrSet("k", create)
	if !found || v != 1 {
		t.Fatalf("second GetOrSet = %d, %v", v, found)
	}

	clock.Advance(2 * time.Minute)
	v, found = c.GetOrSet("k", create)
	if found || v != 2 {
		t.Fatalf("GetOrSet after expiry = %d, %v", v, found)
	}
}

func TestLRUCache_GetOrSetRestartsTTL(t *testing.T) {
	c, clock := newTestCache[int](10, 30*time.Minute)
	calls := 0
	create := func() int { calls++; return calls }

	c.GetOrSet("k", create)
	clock.Advance(20 * time.Minute)
	if v, found := c.GetOrSet("k", create); !found || v != 1 {
		t.Fatalf("GetOrSet at 20m = %d, %v", v, found)
	}
	clock.Advance(20 * time.Minute)
	if v, found := c.GetOrSet("k", create); !found || v != 1 {
		t.Fatalf("GetOrSet 20m after last use = %d, %v", v, found)
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired removed %d live entries", n)
	}

	clock.Advance(31 * time.Minute)
	if v, found := c.GetOrSet("k", create); found || v != 2 {
		t.Fatalf("GetOrSet after 31m idle = %d, %v", v, found)
	}
}

func TestLRUCache_GetKeepsTTL(t *testing.T) {
	c, clock := newTestCache[string](10, time.Minute)
	c.Set("a", "1")
	clock.Advance(40 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit")
	}
	clock.Advance(30 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get should not extend the TTL")
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	c, clock := newTestCache[int](10, time.Second)
	c.Set("a", 1)
	clock.Advance(2 * time.Second)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("CleanNow() = %d, want 1", n)
	}
	m.Stop()
	m.Stop()
}
