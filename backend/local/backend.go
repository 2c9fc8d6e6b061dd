// Package local maps the storage namespace onto a subtree of the local
// filesystem. The root path is fixed at construction time; every storage
// path is translated into an absolute filesystem path beneath it.
package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/averok/notestore"
)

type LocalStorage struct {
	root  string
	trans Translator
}

// NewLocalStorage creates a local filesystem backend anchored at root.
// The root must be an absolute path to an existing directory.
func NewLocalStorage(root string) (*LocalStorage, error) {
	root = filepath.Clean(root)

	return &LocalStorage{
		root:  root,
		trans: NewTranslator(root),
	}, nil
}

// Returns the identifier name defined for this backend.
func (*LocalStorage) Name() string {
	return "local"
}

// Translator exposes the path translation used by this backend, mostly for
// callers that need to map listing results back onto the disk.
func (ls *LocalStorage) Translator() Translator {
	return ls.trans
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (ls *LocalStorage) Open(ctx context.Context) error {
	// Verify the root directory exists
	info, err := os.Stat(ls.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notestore.ErrMountFailed
		}
		if errors.Is(err, fs.ErrPermission) {
			return notestore.ErrPermission
		}

		return notestore.ErrMountFailed
	}

	// Ensure the root is a directory
	if !info.IsDir() {
		return notestore.ErrNotDirectory
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (ls *LocalStorage) Close(ctx context.Context) error {
	// The underlying filesystem persists independently
	return nil
}

// normalizeError maps native filesystem failures onto the backend error set.
// Anything unrecognized is forwarded unchanged.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return notestore.ErrNotExist
	}
	if errors.Is(err, fs.ErrPermission) {
		return notestore.ErrPermission
	}
	if errors.Is(err, fs.ErrExist) {
		return notestore.ErrExist
	}

	return err
}
