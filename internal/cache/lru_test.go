package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](size, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a was recently used and should survive")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, now := newTestCache(10, time.Minute)
	c.Set("k", "v")
	c.Set("other", "v")

	*now = now.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be live")
	}
	*now = now.Add(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Size != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestGetOrLoadSharesConcurrentLoads(t *testing.T) {
	c := NewLRUCache[string](4, time.Hour)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "voice", func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "audio", nil
			})
			if err != nil || v != "audio" {
				t.Errorf("got %q, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("load called %d times", calls.Load())
	}
	if _, ok := c.Get("voice"); !ok {
		t.Fatal("loaded value should be cached")
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewLRUCache[string](4, time.Hour)
	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		return "", errors.New("upstream")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if c.Size() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	c, now := newTestCache(4, time.Second)
	c.Set("k", "v")
	*now = now.Add(time.Minute)

	j := NewJanitor(time.Millisecond, c)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
