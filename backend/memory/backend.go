// Package memory keeps the whole storage namespace in process memory.
// Directories are virtual: they exist exactly as long as something lives
// beneath them. Mostly useful for tests and as the reference implementation
// of the storage contract.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	"github.com/averok/notestore/content"
)

type MemoryStorage struct {
	mu sync.RWMutex

	// File storage path -> entry ID
	keys    *btree.Map[string, string]
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	content []byte
	modTime time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		keys:    btree.NewMap[string, string](0),
		entries: make(map[string]*memoryEntry),
	}
}

// Returns the identifier name defined for this backend.
func (*MemoryStorage) Name() string {
	return "memory"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (ms *MemoryStorage) Open(ctx context.Context) error {
	// No initialization needed - backend is ready to use
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (ms *MemoryStorage) Close(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.keys.Clear()
	for id := range ms.entries {
		delete(ms.entries, id)
	}

	return nil
}

func genEntryID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// filePath normalizes a storage path into the canonical file key form:
// leading slash, no trailing slash.
func filePath(path string) string {
	return content.StripTrailingSlash(content.EnsureLeadingSlash(path))
}

// hasChildren reports whether any file key lives beneath the given
// directory path. Must be called with lock held.
func (ms *MemoryStorage) hasChildren(dir string) bool {
	prefix := content.EnsureTrailingSlash(content.EnsureLeadingSlash(dir))
	if prefix == "/" {
		return ms.keys.Len() > 0
	}

	found := false
	ms.keys.Scan(func(key string, _ string) bool {
		if strings.HasPrefix(key, prefix) {
			found = true
			return false
		}
		return true
	})

	return found
}
