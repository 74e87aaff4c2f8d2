package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("openai", "some document")
	b := Key("openai", "some document")
	c := Key("anthropic", "some document")

	if a != b {
		t.Errorf("expected identical keys, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected namespaces to produce different keys")
	}
	if !strings.HasPrefix(a, "claimrank:v1:openai:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("claimrank:v1:openai:abc", []byte(`{"claims":[]}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok := c.Get("claimrank:v1:openai:abc")
	if !ok || string(got) != `{"claims":[]}` {
		t.Errorf("expected stored value, got %q (%v)", got, ok)
	}

	if err := c.Delete("claimrank:v1:openai:abc"); err != nil {
		t.Errorf("delete: %v", err)
	}
	if err := c.Delete("claimrank:v1:openai:abc"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	_ = c.Set("k", []byte("v"), time.Minute)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []byte("from-disk"), 0)

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := layered.Get("k")
	if !ok || string(got) != "from-disk" {
		t.Fatalf("expected disk hit, got %q (%v)", got, ok)
	}

	if _, ok := layered.memory.Get("k"); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	layered := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	_ = layered.Set("k", []byte("v"), 0)

	if err := layered.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := layered.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}
