package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_SlidingExpiryKeepsUsedEntries(t *testing.T) {
	c := cache.New[string](80*time.Millisecond, cache.WithSlidingExpiry())
	defer c.Close()

	c.Set("sid", "workspace")
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		if _, ok := c.Get("sid"); !ok {
			t.Fatalf("entry expired while in use (round %d)", i)
		}
	}

	time.Sleep(150 * time.Millisecond)
	if _, ok := c.Get("sid"); ok {
		t.Fatal("expected idle entry to expire")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_GetOrCreateIsAtomic(t *testing.T) {
	c := cache.New[*int](5 * time.Minute)
	defer c.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		seen    = make(map[*int]struct{})
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := c.GetOrCreate("sid", func() *int {
				mu.Lock()
				created++
				mu.Unlock()
				return new(int)
			})
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected one creation, got %d", created)
	}
	if len(seen) != 1 {
		t.Errorf("expected every caller to share one value, got %d", len(seen))
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}
