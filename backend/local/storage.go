package local

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/averok/notestore"
)

// Delete removes the file at the given storage path. Directories must be
// empty; deleting a non-empty directory fails with ErrDirectoryNotEmpty
// instead of falling through to whatever the native primitive would do.
func (ls *LocalStorage) Delete(ctx context.Context, path string) error {
	fsPath, err := ls.trans.ToFilesystemPath(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(fsPath)
	if err != nil {
		return normalizeError(err)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(fsPath)
		if err != nil {
			return normalizeError(err)
		}
		if len(entries) > 0 {
			return notestore.ErrDirectoryNotEmpty
		}
	}

	return normalizeError(os.Remove(fsPath))
}

// List returns the notebook resources beneath the given directory path.
func (ls *LocalStorage) List(ctx context.Context, path string, recursive bool) ([]notestore.Resource, error) {
	return ls.enumerate(ctx, path, recursive)
}

// Move renames the file at source to destination.
func (ls *LocalStorage) Move(ctx context.Context, source, destination string) error {
	srcPath, err := ls.trans.ToFilesystemPath(source)
	if err != nil {
		return err
	}

	dstPath, err := ls.trans.ToFilesystemPath(destination)
	if err != nil {
		return err
	}

	return normalizeError(os.Rename(srcPath, dstPath))
}

// Read returns the content of the file at the given storage path.
// A missing file yields (nil, nil) rather than an error.
func (ls *LocalStorage) Read(ctx context.Context, path string) ([]byte, error) {
	fsPath, err := ls.trans.ToFilesystemPath(path)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(fsPath); err == nil && info.IsDir() {
		return nil, notestore.ErrIsDirectory
	}

	data, err := os.ReadFile(fsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, normalizeError(err)
	}

	return data, nil
}

// Write stores content at the given storage path, replacing any existing
// content unconditionally. The parent directory must already exist.
func (ls *LocalStorage) Write(ctx context.Context, path string, content []byte) error {
	fsPath, err := ls.trans.ToFilesystemPath(path)
	if err != nil {
		return err
	}

	return normalizeError(os.WriteFile(fsPath, content, 0644))
}
