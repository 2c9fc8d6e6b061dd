package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/averok/notestore"
	"github.com/averok/notestore/content"
)

// statConcurrency bounds the metadata lookup fan-out during enumeration.
const statConcurrency = 16

// enumerate produces the filtered, metadata-enriched resource list for a
// listing request. The walk is always fully recursive; scope filtering
// happens afterwards, not during the walk. A failure at the walk or at any
// metadata lookup aborts the whole operation, partial results are never
// returned.
func (ls *LocalStorage) enumerate(ctx context.Context, storagePath string, recursive bool) ([]notestore.Resource, error) {
	dir := content.EnsureTrailingSlash(content.EnsureLeadingSlash(storagePath))

	fsDir, err := ls.trans.ToFilesystemPath(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fsDir)
	if err != nil {
		return nil, normalizeError(err)
	}
	if !info.IsDir() {
		return nil, notestore.ErrNotDirectory
	}

	resources, err := ls.walk(fsDir, dir)
	if err != nil {
		return nil, normalizeError(err)
	}

	resources = content.SelectNotebooks(resources)
	resources = content.SelectWithinDirectory(dir, resources, recursive)

	if err := ls.attachMetadata(ctx, resources); err != nil {
		return nil, err
	}

	return resources, nil
}

// walk recursively collects every file and directory beneath fsDir and
// converts each filesystem path back into a storage-path resource.
func (ls *LocalStorage) walk(fsDir, baseDir string) ([]notestore.Resource, error) {
	var resources []notestore.Resource

	err := filepath.WalkDir(fsDir, func(fsPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// The listed directory itself is not part of its own listing
		if fsPath == fsDir {
			return nil
		}

		storagePath, err := ls.trans.ToStoragePath(fsPath, entry.IsDir())
		if err != nil {
			return err
		}

		resources = append(resources, notestore.Resource{
			Path:         storagePath,
			RelativePath: content.RelativePath(baseDir, storagePath),
			IsDirectory:  entry.IsDir(),
			Description:  content.Description(storagePath),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resources, nil
}

// attachMetadata issues one stat per resource to obtain the last-modified
// time. Lookups run concurrently; the first failure cancels the batch and
// is surfaced as the single result.
func (ls *LocalStorage) attachMetadata(ctx context.Context, resources []notestore.Resource) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(statConcurrency)

	for i := range resources {
		i := i
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			fsPath, err := ls.trans.ToFilesystemPath(resources[i].Path)
			if err != nil {
				return err
			}

			info, err := os.Stat(fsPath)
			if err != nil {
				return normalizeError(err)
			}

			resources[i].LastModified = info.ModTime().UTC().Format(time.RFC3339)
			return nil
		})
	}

	return group.Wait()
}
