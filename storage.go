package notestore

import "context"

// Storage is the contract every notebook storage backend must satisfy.
// Paths are always storage-namespace paths (leading slash, trailing slash
// marks a directory), never backend-native keys or filesystem paths.
type Storage interface {
	// Name returns the identifier name defined for this backend.
	Name() string

	// Open is part of the lifecycle behaviour and gets called when the
	// backend is mounted.
	Open(ctx context.Context) error

	// Close is part of the lifecycle behaviour and gets called when the
	// backend is unmounted.
	Close(ctx context.Context) error

	// Delete removes the file at the given storage path.
	// Deleting a non-empty directory fails with ErrDirectoryNotEmpty.
	Delete(ctx context.Context, path string) error

	// List returns the notebook resources beneath the given directory path.
	// With recursive set, every matching descendant is returned; otherwise
	// only direct children. No ordering is guaranteed.
	List(ctx context.Context, path string, recursive bool) ([]Resource, error)

	// Move renames the file at source to destination.
	Move(ctx context.Context, source, destination string) error

	// Read returns the content of the file at the given storage path.
	// A missing file is not an error: the result is (nil, nil), so callers
	// distinguish "resource absent" from "operation failed" without
	// matching error values.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores content at the given storage path, replacing any
	// existing content unconditionally.
	Write(ctx context.Context, path string, content []byte) error
}
