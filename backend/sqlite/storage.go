package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// Delete removes the file at the given storage path. Directories are
// virtual and cannot be deleted while anything lives beneath them.
func (ss *SQLiteStorage) Delete(ctx context.Context, path string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := filePath(path)

	if _, exists := ss.keys.Get(key); !exists {
		if ss.hasChildren(key) {
			return notestore.ErrDirectoryNotEmpty
		}
		return notestore.ErrNotExist
	}

	if _, err := ss.db.ExecContext(ctx, "DELETE FROM notestore_objects WHERE key = ?", key); err != nil {
		return err
	}

	ss.keys.Delete(key)
	return nil
}

// List returns the notebook resources beneath the given directory path.
func (ss *SQLiteStorage) List(ctx context.Context, path string, recursive bool) ([]notestore.Resource, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	dir := content.EnsureTrailingSlash(content.EnsureLeadingSlash(path))

	if dir != "/" && !ss.hasChildren(dir) {
		if _, isFile := ss.keys.Get(content.StripTrailingSlash(dir)); isFile {
			return nil, notestore.ErrNotDirectory
		}
		return nil, notestore.ErrNotExist
	}

	var resources []notestore.Resource
	var fileKeys []string
	dirs := make(map[string]struct{})

	ss.keys.Scan(func(key string, _ string) bool {
		if !strings.HasPrefix(key, dir) {
			return true
		}

		fileKeys = append(fileKeys, key)
		resources = append(resources, notestore.Resource{
			Path:         key,
			RelativePath: content.RelativePath(dir, key),
			IsDirectory:  false,
			Description:  content.Description(key),
		})

		for parent := content.ParentDirectory(key); parent != dir && parent != "/"; parent = content.ParentDirectory(parent) {
			dirs[parent] = struct{}{}
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

	// Metadata lookup per file key; directory times derive from their
	// newest descendant. Any lookup failure aborts the whole listing.
	modTimes := make(map[string]time.Time, len(fileKeys))
	for _, key := range fileKeys {
		var unix int64
		if err := ss.db.QueryRowContext(ctx, "SELECT modify_time FROM notestore_objects WHERE key = ?", key).Scan(&unix); err != nil {
			return nil, err
		}

		modTime := time.Unix(unix, 0)
		modTimes[key] = modTime

		for parent := content.ParentDirectory(key); parent != dir && parent != "/"; parent = content.ParentDirectory(parent) {
			if modTime.After(modTimes[parent]) {
				modTimes[parent] = modTime
			}
		}
	}

	for i := range resources {
		resources[i].LastModified = modTimes[resources[i].Path].UTC().Format(time.RFC3339)
	}

	return resources, nil
}

// Move renames the file at source to destination. Moving a virtual
// directory rekeys every descendant.
func (ss *SQLiteStorage) Move(ctx context.Context, source, destination string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	srcKey := filePath(source)
	dstKey := filePath(destination)

	if _, exists := ss.keys.Get(srcKey); exists {
		return ss.moveKey(ctx, srcKey, dstKey)
	}

	if !ss.hasChildren(srcKey) {
		return notestore.ErrNotExist
	}

	// A file at the destination cannot become a directory prefix
	if _, taken := ss.keys.Get(dstKey); taken {
		return notestore.ErrNotDirectory
	}

	srcPrefix := srcKey + "/"
	var children []string
	ss.keys.Scan(func(key string, _ string) bool {
		if strings.HasPrefix(key, srcPrefix) {
			children = append(children, key)
		}
		return true
	})

	for _, child := range children {
		target := dstKey + "/" + strings.TrimPrefix(child, srcPrefix)
		if err := ss.moveKey(ctx, child, target); err != nil {
			return err
		}
	}

	return nil
}

// moveKey rekeys a single object. Must be called with lock held.
func (ss *SQLiteStorage) moveKey(ctx context.Context, srcKey, dstKey string) error {
	if _, err := ss.db.ExecContext(ctx, "DELETE FROM notestore_objects WHERE key = ?", dstKey); err != nil {
		return err
	}

	if _, err := ss.db.ExecContext(ctx, "UPDATE notestore_objects SET key = ? WHERE key = ?", dstKey, srcKey); err != nil {
		return err
	}

	id, _ := ss.keys.Get(srcKey)
	ss.keys.Delete(srcKey)
	ss.keys.Delete(dstKey)
	ss.keys.Set(dstKey, id)

	return nil
}

// Read returns the content of the file at the given storage path, or
// (nil, nil) when no such file exists.
func (ss *SQLiteStorage) Read(ctx context.Context, path string) ([]byte, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	key := filePath(path)

	var data []byte
	err := ss.db.QueryRowContext(ctx, "SELECT content FROM notestore_objects WHERE key = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if ss.hasChildren(key) {
				return nil, notestore.ErrIsDirectory
			}
			return nil, nil
		}

		return nil, err
	}

	return data, nil
}

// Write stores content at the given storage path, replacing any existing
// content unconditionally. Parent directories come into existence
// implicitly.
func (ss *SQLiteStorage) Write(ctx context.Context, path string, data []byte) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := filePath(path)

	if ss.hasChildren(key) {
		return notestore.ErrIsDirectory
	}

	id, exists := ss.keys.Get(key)
	if !exists {
		id = genObjectID()
	}

	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO notestore_objects (id, key, content, modify_time) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content, modify_time = excluded.modify_time`,
		id, key, data, time.Now().Unix())
	if err != nil {
		return err
	}

	ss.keys.Set(key, id)
	return nil
}
