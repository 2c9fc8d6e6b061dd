package s3

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// hasChildren reports whether any object lives beneath the given storage
// path.
func (ss *S3Storage) hasChildren(ctx context.Context, path string) (bool, error) {
	prefix := buildKey(path) + "/"

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range ss.client.ListObjects(listCtx, ss.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}

	return false, nil
}

// Delete removes the file at the given storage path. Directories are
// virtual and cannot be deleted while anything lives beneath them.
func (ss *S3Storage) Delete(ctx context.Context, path string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := buildKey(path)

	if _, err := ss.client.StatObject(ctx, ss.bucketName, key, minio.StatObjectOptions{}); err != nil {
		if !isNoSuchKey(err) {
			return err
		}

		children, childErr := ss.hasChildren(ctx, path)
		if childErr != nil {
			return childErr
		}
		if children {
			return notestore.ErrDirectoryNotEmpty
		}
		return notestore.ErrNotExist
	}

	return ss.client.RemoveObject(ctx, ss.bucketName, key, minio.RemoveObjectOptions{})
}

// List returns the notebook resources beneath the given directory path.
// The walk is always fully recursive; scope filtering happens afterwards.
func (ss *S3Storage) List(ctx context.Context, path string, recursive bool) ([]notestore.Resource, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	dir := content.EnsureTrailingSlash(content.EnsureLeadingSlash(path))

	prefix := buildKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	var resources []notestore.Resource
	modTimes := make(map[string]time.Time)
	dirs := make(map[string]struct{})
	found := false

	for obj := range ss.client.ListObjects(ctx, ss.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		found = true

		storagePath := toStoragePath(obj.Key)
		resources = append(resources, notestore.Resource{
			Path:         storagePath,
			RelativePath: content.RelativePath(dir, storagePath),
			IsDirectory:  false,
			Description:  content.Description(storagePath),
		})
		modTimes[storagePath] = obj.LastModified

		for parent := content.ParentDirectory(storagePath); parent != dir && parent != "/"; parent = content.ParentDirectory(parent) {
			dirs[parent] = struct{}{}
			if obj.LastModified.After(modTimes[parent]) {
				modTimes[parent] = obj.LastModified
			}
		}
	}

	if dir != "/" && !found {
		if _, err := ss.client.StatObject(ctx, ss.bucketName, buildKey(dir), minio.StatObjectOptions{}); err == nil {
			return nil, notestore.ErrNotDirectory
		} else if !isNoSuchKey(err) {
			return nil, err
		}
		return nil, notestore.ErrNotExist
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

// Move renames the file at source to destination via copy-and-delete;
// object stores offer no rename primitive.
func (ss *S3Storage) Move(ctx context.Context, source, destination string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	srcKey := buildKey(source)
	dstKey := buildKey(destination)

	_, err := ss.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: ss.bucketName, Object: dstKey},
		minio.CopySrcOptions{Bucket: ss.bucketName, Object: srcKey})
	if err != nil {
		if isNoSuchKey(err) {
			return notestore.ErrNotExist
		}
		return err
	}

	return ss.client.RemoveObject(ctx, ss.bucketName, srcKey, minio.RemoveObjectOptions{})
}

// Read returns the content of the file at the given storage path, or
// (nil, nil) when no such object exists.
func (ss *S3Storage) Read(ctx context.Context, path string) ([]byte, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	key := buildKey(path)

	object, err := ss.client.GetObject(ctx, ss.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, err
	}

	return data, nil
}

// Write stores content at the given storage path, replacing any existing
// object unconditionally. Parent directories come into existence
// implicitly.
func (ss *S3Storage) Write(ctx context.Context, path string, data []byte) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key := buildKey(path)

	_, err := ss.client.PutObject(ctx, ss.bucketName, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(path)})
	return err
}
