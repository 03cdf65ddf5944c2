package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestBoltStoreMarksAndExpiresPreviews(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	opts := Options{
		PreviewTTL:      time.Hour,
		CleanupInterval: 30 * time.Minute,
	}

	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "cache.db"), opts, clock.Now)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	seen, err := store.SeenPreview("id1")
	if err != nil || seen {
		t.Fatalf("expected unseen preview, seen=%v err=%v", seen, err)
	}

	if err := store.MarkPreview("id1"); err != nil {
		t.Fatalf("MarkPreview: %v", err)
	}

	seen, err = store.SeenPreview("id1")
	if err != nil || !seen {
		t.Fatalf("expected preview marked as seen, got seen=%v err=%v", seen, err)
	}

	clock.Advance(59 * time.Minute)
	if seen, _ = store.SeenPreview("id1"); !seen {
		t.Fatalf("expected preview to survive within its ttl")
	}

	clock.Advance(2 * time.Minute)
	seen, err = store.SeenPreview("id1")
	if err != nil {
		t.Fatalf("SeenPreview after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestBoltStoreCleanupRemovesExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	store, err := openBolt(filepath.Join(t.TempDir(), "cache.db"), Options{
		PreviewTTL:      time.Hour,
		CleanupInterval: 2 * time.Hour,
	}, clock.Now)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.MarkPreview(id); err != nil {
			t.Fatalf("MarkPreview(%s): %v", id, err)
		}
	}

	clock.Advance(3 * time.Hour)
	if err := store.MarkPreview("fresh"); err != nil {
		t.Fatalf("MarkPreview(fresh): %v", err)
	}

	n, err := store.count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected cleanup to leave only the fresh id, got %d entries", n)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := NewStore("BBOLT", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.MarkPreview("kept"); err != nil {
		t.Fatalf("MarkPreview: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(TypeBbolt, path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if seen, err := reopened.SeenPreview("kept"); err != nil || !seen {
		t.Fatalf("expected id to persist, seen=%v err=%v", seen, err)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := newMemoryStore(Options{PreviewTTL: time.Minute}, clock.Now)

	if err := store.MarkPreview("x"); err != nil {
		t.Fatalf("MarkPreview: %v", err)
	}
	if seen, _ := store.SeenPreview("x"); !seen {
		t.Fatalf("expected x to be seen")
	}
	clock.Advance(time.Minute)
	if seen, _ := store.SeenPreview("x"); seen {
		t.Fatalf("expected x to expire")
	}
}

func TestNewStoreTypes(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkPreview("x"); err != nil {
		t.Fatalf("noop store MarkPreview: %v", err)
	}
	if seen, _ := store.SeenPreview("x"); seen {
		t.Fatalf("noop store should never report seen ids")
	}

	if _, err := NewStore(TypeMemory, "", Options{}); err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	if _, err := NewStore(TypeBbolt, " ", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
