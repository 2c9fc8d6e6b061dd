package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// Delete removes the file at the given storage path. Directories are
// virtual and cannot be deleted while anything lives beneath them.
func (ps *PostgresStorage) Delete(ctx context.Context, path string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key := filePath(path)

	if _, exists := ps.keys.Get(key); !exists {
		if ps.hasChildren(key) {
			return notestore.ErrDirectoryNotEmpty
		}
		return notestore.ErrNotExist
	}

	if _, err := ps.pool.Exec(ctx, "DELETE FROM notestore_objects WHERE key = $1", key); err != nil {
		return err
	}

	ps.keys.Delete(key)
	return nil
}

// List returns the notebook resources beneath the given directory path.
func (ps *PostgresStorage) List(ctx context.Context, path string, recursive bool) ([]notestore.Resource, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	dir := content.EnsureTrailingSlash(content.EnsureLeadingSlash(path))

	if dir != "/" && !ps.hasChildren(dir) {
		if _, isFile := ps.keys.Get(content.StripTrailingSlash(dir)); isFile {
			return nil, notestore.ErrNotDirectory
		}
		return nil, notestore.ErrNotExist
	}

	var resources []notestore.Resource
	var fileKeys []string
	dirs := make(map[string]struct{})

	ps.keys.Scan(func(key string, _ string) bool {
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
		if err := ps.pool.QueryRow(ctx, "SELECT modify_time FROM notestore_objects WHERE key = $1", key).Scan(&unix); err != nil {
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
func (ps *PostgresStorage) Move(ctx context.Context, source, destination string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	srcKey := filePath(source)
	dstKey := filePath(destination)

	if _, exists := ps.keys.Get(srcKey); exists {
		return ps.moveKey(ctx, srcKey, dstKey)
	}

	if !ps.hasChildren(srcKey) {
		return notestore.ErrNotExist
	}

	// A file at the destination cannot become a directory prefix
	if _, taken := ps.keys.Get(dstKey); taken {
		return notestore.ErrNotDirectory
	}

	srcPrefix := srcKey + "/"
	var children []string
	ps.keys.Scan(func(key string, _ string) bool {
		if strings.HasPrefix(key, srcPrefix) {
			children = append(children, key)
		}
		return true
	})

	for _, child := range children {
		target := dstKey + "/" + strings.TrimPrefix(child, srcPrefix)
		if err := ps.moveKey(ctx, child, target); err != nil {
			return err
		}
	}

	return nil
}

// moveKey rekeys a single object. Must be called with lock held.
func (ps *PostgresStorage) moveKey(ctx context.Context, srcKey, dstKey string) error {
	if _, err := ps.pool.Exec(ctx, "DELETE FROM notestore_objects WHERE key = $1", dstKey); err != nil {
		return err
	}

	if _, err := ps.pool.Exec(ctx, "UPDATE notestore_objects SET key = $1 WHERE key = $2", dstKey, srcKey); err != nil {
		return err
	}

	id, _ := ps.keys.Get(srcKey)
	ps.keys.Delete(srcKey)
	ps.keys.Delete(dstKey)
	ps.keys.Set(dstKey, id)

	return nil
}

// Read returns the content of the file at the given storage path, or
// (nil, nil) when no such file exists.
func (ps *PostgresStorage) Read(ctx context.Context, path string) ([]byte, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	key := filePath(path)

	var data []byte
	err := ps.pool.QueryRow(ctx, "SELECT content FROM notestore_objects WHERE key = $1", key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if ps.hasChildren(key) {
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
func (ps *PostgresStorage) Write(ctx context.Context, path string, data []byte) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key := filePath(path)

	if ps.hasChildren(key) {
		return notestore.ErrIsDirectory
	}

	id, exists := ps.keys.Get(key)
	if !exists {
		id = genObjectID()
	}

	_, err := ps.pool.Exec(ctx,
		`INSERT INTO notestore_objects (id, key, content, modify_time) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET content = EXCLUDED.content, modify_time = EXCLUDED.modify_time`,
		id, key, data, time.Now().Unix())
	if err != nil {
		return err
	}

	ps.keys.Set(key, id)
	return nil
}
