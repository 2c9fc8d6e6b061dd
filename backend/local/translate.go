package local

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// Translator converts between the storage namespace and the filesystem
// namespace. A storage path carries a leading slash and marks directories
// with a trailing slash; the filesystem side treats files and directories
// identically once trailing slashes are removed.
//
// For any path produced by walking the root subtree the two directions are
// exact inverses: ToStoragePath(ToFilesystemPath(p), isDir(p)) == p.
type Translator struct {
	root string
}

func NewTranslator(root string) Translator {
	return Translator{
		root: filepath.Clean(root),
	}
}

// ToFilesystemPath joins the configured root with the storage path and
// strips any trailing slash. Paths containing parent-directory segments are
// rejected with ErrInvalidPath before translation, so no storage path can
// escape the root.
func (t Translator) ToFilesystemPath(storagePath string) (string, error) {
	storagePath = content.EnsureLeadingSlash(storagePath)

	for _, segment := range strings.Split(storagePath, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %s", notestore.ErrInvalidPath, storagePath)
		}
	}

	return filepath.Join(t.root, filepath.FromSlash(storagePath)), nil
}

// ToStoragePath removes the configured root prefix from the filesystem
// path, ensures a leading slash and, for directories, a trailing slash.
// Filesystem paths outside the root are rejected with ErrInvalidPath.
func (t Translator) ToStoragePath(fsPath string, isDir bool) (string, error) {
	fsPath = filepath.Clean(fsPath)

	// A root of "/" already ends in the separator
	prefix := t.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	if fsPath != t.root && !strings.HasPrefix(fsPath, prefix) {
		return "", fmt.Errorf("%w: %s outside root", notestore.ErrInvalidPath, fsPath)
	}

	rel := strings.TrimPrefix(fsPath, t.root)
	storagePath := content.EnsureLeadingSlash(filepath.ToSlash(rel))

	if isDir {
		storagePath = content.EnsureTrailingSlash(storagePath)
	}

	return storagePath, nil
}
