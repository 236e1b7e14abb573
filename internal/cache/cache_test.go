package cache

import (
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %v, %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("content:banner:list:owner=a", 1)
	c.Set("content:banner:item:1", 2)
	c.Set("content:blog:list:owner=a", 3)

	if n := c.DeletePrefix("content:banner:"); n != 2 {
		t.Fatalf("DeletePrefix removed %d, want 2", n)
	}
	if _, ok := c.Get("content:banner:item:1"); ok {
		t.Fatalf("banner key should be gone")
	}
	if _, ok := c.Get("content:blog:list:owner=a"); !ok {
		t.Fatalf("blog key should survive")
	}
}

func TestCache_EvictsWhenFull(t *testing.T) {
	c := New(time.Minute)
	c.maxEntries = 2
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(time.Second)
	c.Set("b", 2)
	now = now.Add(time.Second)
	c.Set("c", 3)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("newest entry missing")
	}

	c.Set("b", 20)
	if v, _ := c.Get("b"); v != 20 {
		t.Fatalf("overwrite = %v", v)
	}
	if c.Len() != 2 {
		t.Fatalf("overwrite should not evict, Len = %d", c.Len())
	}
}
