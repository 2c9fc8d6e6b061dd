// Package s3 stores notebooks in an S3-compatible object store via the
// MinIO client. Storage paths map onto object keys without the leading
// slash; directories are virtual key prefixes, as usual for object stores.
package s3

import (
	"context"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

type S3Storage struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
}

func NewS3Storage(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &S3Storage{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Returns the identifier name defined for this backend.
func (*S3Storage) Name() string {
	return "s3"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (ss *S3Storage) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	exists, err := ss.client.BucketExists(ctx, ss.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return notestore.ErrMountFailed
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (ss *S3Storage) Close(ctx context.Context) error {
	return nil
}

// buildKey constructs the object key for a storage path.
func buildKey(path string) string {
	return strings.TrimPrefix(content.StripTrailingSlash(content.EnsureLeadingSlash(path)), "/")
}

// toStoragePath converts an object key back into a storage path.
func toStoragePath(key string) string {
	return content.EnsureLeadingSlash(key)
}

// contentType picks the MIME type stored alongside an object.
func contentType(path string) string {
	if content.IsNotebook(path) {
		return "application/x-ipynb+json"
	}

	return "application/octet-stream"
}

// isNoSuchKey reports whether an S3 error means the object is absent.
func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
