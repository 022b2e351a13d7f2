package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
)

func TestKey_Namespaced(t *testing.T) {
	a := Key("search", "duckduckgo", "earth orbits sun", "us-en")
	b := Key("search", "duckduckgo", "earth orbits sun", "us-en")
	c := Key("search", "duckduckgo", "earth orbits sun", "uk-en")

	if a != b {
		t.Errorf("Expected identical keys for identical parts, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected different keys for different regions")
	}
	if !strings.HasPrefix(a, "truthguard:v1:search:") {
		t.Errorf("Expected namespaced prefix, got %s", a)
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Expected v, got %q (found=%v)", got, ok)
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("embed", "hello")

	if err := c.Set(key, []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != "payload" {
		t.Errorf("Expected payload, got %q (found=%v)", got, ok)
	}

	if err := c.Set(key, []byte("stale"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to be a miss")
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing entry to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("from-disk"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := layered.Get("k")
	if !ok || string(got) != "from-disk" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", got, ok)
	}
	if _, ok := layered.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type payload struct {
		Title string
		Rank  int
	}

	if err := SetJSON(c, "p", payload{Title: "NASA", Rank: 1}, 0); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var out payload
	if !GetJSON(c, "p", &out) {
		t.Fatal("Expected GetJSON hit")
	}
	if out.Title != "NASA" || out.Rank != 1 {
		t.Errorf("Unexpected payload: %+v", out)
	}

	_ = c.Set("bad", []byte("{not json"), 0)
	if GetJSON(c, "bad", &out) {
		t.Error("Expected corrupt entry to be a miss")
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("Expected corrupt entry to be evicted")
	}

	if GetJSON(nil, "p", &out) {
		t.Error("Expected nil cache to always miss")
	}
}

func TestNew_FromConfig(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("Expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Directory: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("Expected layered cache with directory")
	}
}
