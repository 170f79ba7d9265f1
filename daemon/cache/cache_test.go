package cache

import (
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New(1*time.Minute, 10)

	key := "test-key"
	value := "test-value"

	c.Set(key, value)

	retrieved, found := c.Get(key)
	if !found {
		t.Error("Expected to find cached value")
	}
	if retrieved != value {
		t.Errorf("Expected %s, got %s", value, retrieved)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := New(100*time.Millisecond, 10)

	key := "test-key"
	c.Set(key, "test-value")

	if _, found := c.Get(key); !found {
		t.Error("Expected to find cached value immediately")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("Expected cached value to be expired")
	}
}

func TestCache_CustomTTL(t *testing.T) {
	c := New(1*time.Minute, 10)

	key := "test-key"
	customTTL := 50 * time.Millisecond

	c.SetWithTTL(key, "test-value", customTTL)

	if _, found := c.Get(key); !found {
		t.Error("Expected to find cached value immediately")
	}

	time.Sleep(75 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("Expected cached value to be expired after custom TTL")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(1*time.Minute, 10)

	key := "test-key"
	c.Set(key, "test-value")

	if _, found := c.Get(key); !found {
		t.Error("Expected to find cached value")
	}

	c.Delete(key)

	if _, found := c.Get(key); found {
		t.Error("Expected cached value to be deleted")
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(1*time.Minute, 3)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	// Access key1 so it isn't the least recently used entry.
	c.Get("key1")

	// Capacity is full; inserting a new key should evict the LRU entry (key2).
	c.Set("key4", "value4")

	if _, found := c.Get("key1"); !found {
		t.Error("Expected key1 to still be in cache (recently accessed)")
	}
	if _, found := c.Get("key2"); found {
		t.Error("Expected key2 to be evicted (least recently used)")
	}
	if _, found := c.Get("key3"); !found {
		t.Error("Expected key3 to still be in cache")
	}
	if _, found := c.Get("key4"); !found {
		t.Error("Expected key4 to be in cache (just added)")
	}
}

func TestCache_Stats(t *testing.T) {
	c := New(1*time.Minute, 10)

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	c.Get("key1") // hit
	c.Get("key1") // hit
	c.Get("key3") // miss
	c.Get("key2") // hit
	c.Get("key4") // miss

	hits, misses, entries := c.Stats()
	if entries != 2 {
		t.Errorf("Expected 2 entries, got %d", entries)
	}
	if hits != 3 {
		t.Errorf("Expected 3 hits, got %d", hits)
	}
	if misses != 2 {
		t.Errorf("Expected 2 misses, got %d", misses)
	}
}
