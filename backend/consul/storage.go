package consul

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// hasChildren reports whether any KV key lives beneath the given storage
// path.
func (cs *ConsulStorage) hasChildren(ctx context.Context, path string) (bool, error) {
	prefix := cs.buildKey(path) + "/"

	keys, _, err := cs.kv.Keys(prefix, "", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return false, err
	}

	return len(keys) > 0, nil
}

// Delete removes the file at the given storage path. Directories are
// virtual and cannot be deleted while anything lives beneath them.
func (cs *ConsulStorage) Delete(ctx context.Context, path string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	consulKey := cs.buildKey(path)

	pair, _, err := cs.kv.Get(consulKey, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}

	if pair == nil {
		children, err := cs.hasChildren(ctx, path)
		if err != nil {
			return err
		}
		if children {
			return notestore.ErrDirectoryNotEmpty
		}
		return notestore.ErrNotExist
	}

	_, err = cs.kv.Delete(consulKey, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

// List returns the notebook resources beneath the given directory path.
func (cs *ConsulStorage) List(ctx context.Context, path string, recursive bool) ([]notestore.Resource, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	dir := content.EnsureTrailingSlash(content.EnsureLeadingSlash(path))

	prefix := cs.buildKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	pairs, _, err := cs.kv.List(prefix, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if dir != "/" && len(pairs) == 0 {
		if filePair, _, err := cs.kv.Get(cs.buildKey(dir), (&api.QueryOptions{}).WithContext(ctx)); err != nil {
			return nil, err
		} else if filePair != nil {
			return nil, notestore.ErrNotDirectory
		}
		return nil, notestore.ErrNotExist
	}

	var resources []notestore.Resource
	modTimes := make(map[string]time.Time)
	dirs := make(map[string]struct{})

	for _, pair := range pairs {
		storagePath := cs.toStoragePath(pair.Key)

		// Per-resource metadata comes from the stored envelope; one
		// undecodable entry fails the whole listing.
		env, err := decodeEnvelope(pair)
		if err != nil {
			return nil, fmt.Errorf("malformed entry at '%s': %w", storagePath, err)
		}

		modTime := time.Unix(env.ModifyTime, 0)
		resources = append(resources, notestore.Resource{
			Path:         storagePath,
			RelativePath: content.RelativePath(dir, storagePath),
			IsDirectory:  false,
			Description:  content.Description(storagePath),
		})
		modTimes[storagePath] = modTime

		for parent := content.ParentDirectory(storagePath); parent != dir && parent != "/"; parent = content.ParentDirectory(parent) {
			dirs[parent] = struct{}{}
			if modTime.After(modTimes[parent]) {
				modTimes[parent] = modTime
			}
		}
	}

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
func (cs *ConsulStorage) Move(ctx context.Context, source, destination string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	srcKey := cs.buildKey(source)
	dstKey := cs.buildKey(destination)

	pair, _, err := cs.kv.Get(srcKey, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}

	if pair != nil {
		return cs.moveKey(ctx, pair, dstKey)
	}

	pairs, _, err := cs.kv.List(srcKey+"/", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return notestore.ErrNotExist
	}

	// A file at the destination cannot become a directory prefix
	if dstPair, _, err := cs.kv.Get(dstKey, (&api.QueryOptions{}).WithContext(ctx)); err != nil {
		return err
	} else if dstPair != nil {
		return notestore.ErrNotDirectory
	}

	for _, child := range pairs {
		target := dstKey + "/" + strings.TrimPrefix(child.Key, srcKey+"/")
		if err := cs.moveKey(ctx, child, target); err != nil {
			return err
		}
	}

	return nil
}

// moveKey rewrites a single KV pair under a new key and removes the old
// one. Not atomic; Consul KV offers no rename primitive.
func (cs *ConsulStorage) moveKey(ctx context.Context, pair *api.KVPair, dstKey string) error {
	put := &api.KVPair{
		Key:   dstKey,
		Value: pair.Value,
	}

	if _, err := cs.kv.Put(put, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		return err
	}

	_, err := cs.kv.Delete(pair.Key, (&api.WriteOptions{}).WithContext(ctx))
	return err
}

// Read returns the content of the file at the given storage path, or
// (nil, nil) when no such file exists.
func (cs *ConsulStorage) Read(ctx context.Context, path string) ([]byte, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	consulKey := cs.buildKey(path)

	pair, _, err := cs.kv.Get(consulKey, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if pair == nil {
		children, err := cs.hasChildren(ctx, path)
		if err != nil {
			return nil, err
		}
		if children {
			return nil, notestore.ErrIsDirectory
		}
		return nil, nil
	}

	env, err := decodeEnvelope(pair)
	if err != nil {
		return nil, err
	}

	return env.Content, nil
}

// Write stores content at the given storage path, replacing any existing
// content unconditionally. Parent directories come into existence
// implicitly.
func (cs *ConsulStorage) Write(ctx context.Context, path string, data []byte) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if len(data) > maxValueSize {
		return fmt.Errorf("%w: content exceeds consul value limit (%d bytes)", notestore.ErrInvalid, maxValueSize)
	}

	children, err := cs.hasChildren(ctx, path)
	if err != nil {
		return err
	}
	if children {
		return notestore.ErrIsDirectory
	}

	value, err := encodeEnvelope(data)
	if err != nil {
		return err
	}

	pair := &api.KVPair{
		Key:   cs.buildKey(path),
		Value: value,
	}

	_, err = cs.kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx))
	return err
}
