package memory

import (
	"context"
	"strings"
	"time"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// Delete removes the file at the given storage path. Virtual directories
// cannot be deleted while anything lives beneath them; once empty they no
// longer exist at all.
func (ms *MemoryStorage) Delete(ctx context.Context, path string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := filePath(path)

	if id, exists := ms.keys.Get(key); exists {
		ms.keys.Delete(key)
		delete(ms.entries, id)
		return nil
	}

	if ms.hasChildren(key) {
		return notestore.ErrDirectoryNotEmpty
	}

	return notestore.ErrNotExist
}

// List returns the notebook resources beneath the given directory path.
func (ms *MemoryStorage) List(ctx context.Context, path string, recursive bool) ([]notestore.Resource, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	dir := content.EnsureTrailingSlash(content.EnsureLeadingSlash(path))

	if dir != "/" && !ms.hasChildren(dir) {
		if _, isFile := ms.keys.Get(content.StripTrailingSlash(dir)); isFile {
			return nil, notestore.ErrNotDirectory
		}
		return nil, notestore.ErrNotExist
	}

	var resources []notestore.Resource
	modTimes := make(map[string]time.Time)

	// Directories are synthesized from the file keys beneath them; a
	// directory's modify time is that of its newest descendant.
	dirs := make(map[string]struct{})
	ms.keys.Scan(func(key string, id string) bool {
		if !strings.HasPrefix(key, dir) {
			return true
		}

		entry := ms.entries[id]
		resources = append(resources, notestore.Resource{
			Path:         key,
			RelativePath: content.RelativePath(dir, key),
			IsDirectory:  false,
			Description:  content.Description(key),
		})
		modTimes[key] = entry.modTime

		for parent := content.ParentDirectory(key); parent != dir && parent != "/"; parent = content.ParentDirectory(parent) {
			dirs[parent] = struct{}{}
			if entry.modTime.After(modTimes[parent]) {
				modTimes[parent] = entry.modTime
			}
		}

		return true
	})

	for dirPath := range dirs {
		resources = append(resources, notestore.Resource{
			Path:         dirPath,
			RelativePath: content.RelativePath(dir, dirPath),
			IsDirectory:  true,
			Description:  content.Description(dirPath),
		})
	}

	resources = content.SelectNotebooks(resources)
	resources = content.SelectWithinDirectory(dir, resources, recursive)

	for i := range resources {
		resources[i].LastModified = modTimes[resources[i].Path].UTC().Format(time.RFC3339)
	}

	return resources, nil
}

// Move renames the file at source to destination. Moving a virtual
// directory rekeys every descendant.
func (ms *MemoryStorage) Move(ctx context.Context, source, destination string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	srcKey := filePath(source)
	dstKey := filePath(destination)

	if id, exists := ms.keys.Get(srcKey); exists {
		if existing, taken := ms.keys.Get(dstKey); taken {
			delete(ms.entries, existing)
		}
		ms.keys.Delete(srcKey)
		ms.keys.Set(dstKey, id)
		return nil
	}

	if !ms.hasChildren(srcKey) {
		return notestore.ErrNotExist
	}

	// A file at the destination cannot become a directory prefix
	if _, taken := ms.keys.Get(dstKey); taken {
		return notestore.ErrNotDirectory
	}

	srcPrefix := srcKey + "/"
	type rekey struct {
		from, to string
	}

	var moves []rekey
	ms.keys.Scan(func(key string, _ string) bool {
		if strings.HasPrefix(key, srcPrefix) {
			moves = append(moves, rekey{from: key, to: dstKey + "/" + strings.TrimPrefix(key, srcPrefix)})
		}
		return true
	})

	for _, move := range moves {
		id, _ := ms.keys.Get(move.from)
		ms.keys.Delete(move.from)
		ms.keys.Set(move.to, id)
	}

	return nil
}

// Read returns the content of the file at the given storage path, or
// (nil, nil) when no such file exists.
func (ms *MemoryStorage) Read(ctx context.Context, path string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	key := filePath(path)

	id, exists := ms.keys.Get(key)
	if !exists {
		if ms.hasChildren(key) {
			return nil, notestore.ErrIsDirectory
		}
		return nil, nil
	}

	entry := ms.entries[id]
	buffer := make([]byte, len(entry.content))
	copy(buffer, entry.content)

	return buffer, nil
}

// Write stores content at the given storage path, replacing any existing
// content unconditionally. Parent directories come into existence
// implicitly.
func (ms *MemoryStorage) Write(ctx context.Context, path string, data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key := filePath(path)

	if ms.hasChildren(key) {
		return notestore.ErrIsDirectory
	}

	buffer := make([]byte, len(data))
	copy(buffer, data)

	if id, exists := ms.keys.Get(key); exists {
		ms.entries[id].content = buffer
		ms.entries[id].modTime = time.Now()
		return nil
	}

	id := genEntryID()
	ms.entries[id] = &memoryEntry{
		content: buffer,
		modTime: time.Now(),
	}
	ms.keys.Set(key, id)

	return nil
}
