package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSetDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("Get(a) after overwrite = %d, want 2", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // touch a so b becomes oldest
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected least recently used entry to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry should survive eviction")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if cleaned := c.CleanExpired(); cleaned != 1 {
		t.Fatalf("CleanExpired() = %d, want 1 (a already dropped by Get)", cleaned)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() after cleanup = %d, want 0", c.Size())
	}
}
