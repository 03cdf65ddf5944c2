// Package storage remembers which article previews were already published.
package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store tracks published preview IDs.
type Store interface {
	Close() error
	SeenPreview(id string) (bool, error)
	MarkPreview(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	PreviewTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultPreviewTTL      = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Supported storage types.
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeBbolt  = "bbolt"
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeMemory:
		return newMemoryStore(opts, time.Now), nil
	case TypeBbolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts, time.Now)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.PreviewTTL <= 0 {
		opts.PreviewTTL = defaultPreviewTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                     { return nil }
func (noopStore) SeenPreview(string) (bool, error) { return false, nil }
func (noopStore) MarkPreview(string) error         { return nil }

// memoryStore keeps seen IDs for the life of the process.
type memoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	ids map[string]time.Time
}

func newMemoryStore(opts Options, now func() time.Time) *memoryStore {
	return &memoryStore{ttl: opts.PreviewTTL, now: now, ids: make(map[string]time.Time)}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) SeenPreview(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.ids[id]
	if !ok {
		return false, nil
	}
	if !expiry.After(m.now()) {
		delete(m.ids, id)
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) MarkPreview(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = m.now().Add(m.ttl)
	return nil
}
