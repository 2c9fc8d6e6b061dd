package notestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/averok/notestore/log"
)

// Store is the storage manager. It routes storage-namespace paths to the
// backend mounted at the longest matching prefix and delegates the five
// storage operations to it. The mount table is the only shared state; every
// mounted backend is otherwise on its own regarding concurrency.
type Store struct {
	mu     sync.RWMutex
	logger *log.Logger
	mounts map[string]*storeMount
}

type storeMount struct {
	storage   Storage
	options   *MountOptions
	mountTime time.Time
}

// StoreMountInfo describes one active mount.
type StoreMountInfo struct {
	Path      string
	Backend   string
	ReadOnly  bool
	MountTime time.Time
}

func NewStore(opts ...StoreOption) *Store {
	options := newDefaultStoreOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Store{
		logger: options.Logger,
		mounts: make(map[string]*storeMount),
	}
}

// Mount opens the given backend and attaches it at the specified path.
func (s *Store) Mount(ctx context.Context, path string, storage Storage, opts ...MountOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = cleanPath(path)

	if _, exists := s.mounts[path]; exists {
		return fmt.Errorf("%w: /%s", ErrAlreadyMounted, path)
	}

	options := newDefaultMountOptions()
	for _, opt := range opts {
		opt(options)
	}

	if err := storage.Open(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMountFailed, err)
	}

	s.mounts[path] = &storeMount{
		storage:   storage,
		options:   options,
		mountTime: time.Now(),
	}

	s.logger.Debug("Mounted '%s' backend at '/%s'", storage.Name(), path)
	return nil
}

// Unmount closes and removes the backend mounted at the given path.
// Returns ErrMountBusy if child mounts exist.
func (s *Store) Unmount(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = cleanPath(path)

	entry, exists := s.mounts[path]
	if !exists {
		return fmt.Errorf("%w: /%s", ErrNotMounted, path)
	}

	if s.hasChildMounts(path) {
		return fmt.Errorf("%w: /%s has child mounts", ErrMountBusy, path)
	}

	if err := entry.storage.Close(ctx); err != nil {
		return err
	}

	delete(s.mounts, path)

	s.logger.Debug("Unmounted '/%s'", path)
	return nil
}

// Shutdown unmounts all mounted backends, deepest first, and reports every
// failure joined into a single error.
func (s *Store) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.mounts))
	for path := range s.mounts {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		return len(paths[i]) > len(paths[j])
	})

	errs := Errors{}
	for _, path := range paths {
		if err := s.mounts[path].storage.Close(ctx); err != nil {
			errs.Add(fmt.Errorf("unmount '/%s': %w", path, err))
		}
		delete(s.mounts, path)
	}

	return errs.Errors()
}

// Mounts returns information about all active mounts.
func (s *Store) Mounts() []StoreMountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]StoreMountInfo, 0, len(s.mounts))
	for path, entry := range s.mounts {
		infos = append(infos, StoreMountInfo{
			Path:      "/" + path,
			Backend:   entry.storage.Name(),
			ReadOnly:  entry.options.ReadOnly,
			MountTime: entry.mountTime,
		})
	}

	return infos
}

// resolve finds the longest matching mount for a storage path and returns the
// mount, its mount point, and the path rewritten relative to the mount point.
func (s *Store) resolve(path string) (*storeMount, string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trailing := len(path) > 1 && path[len(path)-1] == '/'
	cleaned := cleanPath(path)

	bestMatch := ""
	found := false
	for mountPoint := range s.mounts {
		if hasPrefix(cleaned, mountPoint) {
			if !found || len(mountPoint) > len(bestMatch) {
				bestMatch = mountPoint
				found = true
			}
		}
	}

	if !found {
		return nil, "", "", fmt.Errorf("%w: no mount for path %s", ErrNotMounted, path)
	}

	rel := trimPrefix(cleaned, bestMatch)
	if trailing && rel != "/" {
		rel += "/"
	}

	return s.mounts[bestMatch], bestMatch, rel, nil
}

// hasChildMounts checks if any mounts exist under the given parent path.
// Must be called with lock held.
func (s *Store) hasChildMounts(parent string) bool {
	for mountPoint := range s.mounts {
		if mountPoint != parent && hasPrefix(mountPoint, parent) {
			return true
		}
	}
	return false
}
