package cache

import (
	"testing"
	"time"

	"rdb/internal/domain"
)

func sample(title string) []domain.SearchResult {
	return []domain.SearchResult{{Rank: 1, Score: 0.9, Chunk: domain.Chunk{PageTitle: title}}}
}

func TestCache_HitAndMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	if _, hit := c.Get("wifi", 5, false); hit {
		t.Error("expected miss on empty cache")
	}

	c.Put("wifi", 5, false, sample("Wireless"))

	results, hit := c.Get("wifi", 5, false)
	if !hit {
		t.Fatal("expected hit")
	}
	if results[0].Chunk.PageTitle != "Wireless" {
		t.Errorf("unexpected cached result: %+v", results[0])
	}
}

func TestCache_KeyIncludesRefineAndTopK(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("wifi", 5, false, sample("A"))

	if _, hit := c.Get("wifi", 5, true); hit {
		t.Error("refine flag must be part of the key")
	}
	if _, hit := c.Get("wifi", 3, false); hit {
		t.Error("topK must be part of the key")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewQueryCache(10, 10*time.Millisecond)
	c.Put("wifi", 5, false, sample("A"))

	time.Sleep(20 * time.Millisecond)
	if _, hit := c.Get("wifi", 5, false); hit {
		t.Error("expected entry expired")
	}
	if c.Size() != 0 {
		t.Errorf("expected expired entry removed, size=%d", c.Size())
	}
}

func TestCache_InvalidateOnIndexSwap(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("wifi", 5, false, sample("A"))

	c.Invalidate()
	if _, hit := c.Get("wifi", 5, false); hit {
		t.Error("expected miss after invalidation")
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("a", 5, false, sample("A"))
	c.Put("b", 5, false, sample("B"))

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a", 5, false)
	c.Put("c", 5, false, sample("C"))

	if _, hit := c.Get("a", 5, false); !hit {
		t.Error("expected recently used entry kept")
	}
	if _, hit := c.Get("b", 5, false); hit {
		t.Error("expected least recently used entry evicted")
	}
}
