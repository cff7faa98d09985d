package cache

import (
	"testing"
	"time"
)

func TestTTL_SetGet(t *testing.T) {
	t.Parallel()

	c := NewTTL[int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set("k", 7)
	v, ok := c.Get("k")
	if !ok || v != 7 {
		t.Errorf("Get(k) = %v, %v; want 7, true", v, ok)
	}
}

func TestTTL_Expiry(t *testing.T) {
	t.Parallel()

	c := NewTTL[string](time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", "v")

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before its TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived past its TTL")
	}

	// The expired entry must also be gone from the map, not just masked.
	if len(c.m) != 0 {
		t.Errorf("expired entry not evicted, %d entries remain", len(c.m))
	}
}

func TestTTL_SetSweepsExpired(t *testing.T) {
	t.Parallel()

	c := NewTTL[string](time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set("old", "v")
	now = now.Add(2 * time.Minute)
	c.Set("new", "v")

	if len(c.m) != 1 {
		t.Errorf("Set did not sweep expired entries, %d entries remain", len(c.m))
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("fresh entry missing after sweep")
	}
}

func TestTTL_SetRefreshes(t *testing.T) {
	t.Parallel()

	c := NewTTL[int](time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(50 * time.Second)
	c.Set("k", 2)
	now = now.Add(50 * time.Second)

	// 100s after the first Set but only 50s after the refresh.
	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Errorf("Get(k) = %v, %v; want refreshed value 2", v, ok)
	}
}
