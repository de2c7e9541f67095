package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("Size = %d, want 2", c.Size())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute, WithClock(clock.now))

	c.Set("k", "v")
	clock.advance(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired too early")
	}
	clock.advance(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should be expired")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry not removed on read, size %d", c.Size())
	}
}

func TestLRUCacheCleanExpiredAndPurge(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute, WithClock(clock.now))

	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.advance(30 * time.Second)
	c.Set("fresh", 3)
	clock.advance(45 * time.Second)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired = %d, want 2", n)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry removed")
	}

	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("Size after Purge = %d", c.Size())
	}
}

func TestLRUCacheOverwrite(t *testing.T) {
	c := NewLRUCache[int](1, time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)
	if v, _ := c.Get("k"); v != 2 || c.Size() != 1 {
		t.Fatalf("v=%d size=%d", v, c.Size())
	}
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)}
	reports := NewLRUCache[int](10, time.Second, WithClock(clock.now))
	reports.Set("a", 1)

	m := NewManager(nil)
	m.Register("reports", reports)
	clock.advance(2 * time.Second)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without StartCleanup")
	}
}
