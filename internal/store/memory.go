package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"

	"feedcache/internal/feedcache"
)

// MemoryStore is an in-memory implementation of feedcache.AssetStore.
// It is useful for tests and dry runs.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	name    string
	objects map[string][]byte
	relaxed map[string]bool
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with the given name.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:    name,
		objects: make(map[string][]byte),
		relaxed: make(map[string]bool),
	}
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("%w: %s", feedcache.ErrAssetNotFound, key)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, ext string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.objects {
		if path.Ext(key) == ext {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.relaxed, key)
	return nil
}

// Relax records that key was relaxed so tests can assert on it.
func (m *MemoryStore) Relax(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %s", feedcache.ErrAssetNotFound, key)
	}
	m.relaxed[key] = true
	return nil
}

// IsRelaxed reports whether Relax succeeded for key.
func (m *MemoryStore) IsRelaxed(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.relaxed[key]
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(_ context.Context) error {
	return nil
}

// Compile-time check that MemoryStore implements feedcache.AssetStore
var _ feedcache.AssetStore = (*MemoryStore)(nil)
