package notestore_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/averok/notestore"
	"github.com/averok/notestore/backend/local"
	"github.com/averok/notestore/backend/memory"
	"github.com/averok/notestore/backend/sqlite"
	"github.com/averok/notestore/log"
)

// TestStorageFactory builds a backend for the contract suite. The returned
// fsRoot is empty for backends with implicit directories and points at the
// backing directory for the local backend, so tests can pre-create the
// directory layout it requires.
type TestStorageFactory func(tst *testing.T) (notestore.Storage, string, error)

func GetTestStorageFactories() map[string]TestStorageFactory {
	return map[string]TestStorageFactory{
		"local": func(tst *testing.T) (notestore.Storage, string, error) {
			root := tst.TempDir()
			storage, err := local.NewLocalStorage(root)
			return storage, root, err
		},
		"memory": func(tst *testing.T) (notestore.Storage, string, error) {
			return memory.NewMemoryStorage(), "", nil
		},
		"sqlite": func(tst *testing.T) (notestore.Storage, string, error) {
			storage, err := sqlite.NewSQLiteStorage(":memory:")
			return storage, "", err
		},
	}
}

func newTestStore(tst *testing.T, factory TestStorageFactory) (*notestore.Store, string) {
	ctx := context.Background()

	store := notestore.NewStore(notestore.WithLogLevel(log.Error))

	storage, fsRoot, err := factory(tst)
	if err != nil {
		tst.Fatalf("Failed to create backend: %v", err)
	}

	if err := store.Mount(ctx, "/", storage); err != nil {
		tst.Fatalf("Failed to mount: %v", err)
	}
	tst.Cleanup(func() {
		store.Shutdown(ctx)
	})

	return store, fsRoot
}

// prepareDirectories creates the directory layout on disk for the local
// backend; backends with implicit directories need no preparation.
func prepareDirectories(tst *testing.T, fsRoot string, dirs ...string) {
	if fsRoot == "" {
		return
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(fsRoot, filepath.FromSlash(dir)), 0755); err != nil {
			tst.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}

// TestAllBackends_WriteThenRead verifies that written content reads back
// byte for byte across all backend implementations.
func TestAllBackends_WriteThenRead(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := context.Background()
			store, _ := newTestStore(tst, factory)

			content := []byte(`{"cells":[]}`)
			if err := store.Write(ctx, "/notebook.ipynb", content); err != nil {
				tst.Fatalf("Write failed: %v", err)
			}

			got, err := store.Read(ctx, "/notebook.ipynb")
			if err != nil {
				tst.Fatalf("Read failed: %v", err)
			}

			if !bytes.Equal(got, content) {
				tst.Errorf("Expected %q, got %q", content, got)
			}
		})
	}
}

// TestAllBackends_ReadAbsent verifies that reading a missing file is a
// successful result with nil content, never an error.
func TestAllBackends_ReadAbsent(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := context.Background()
			store, _ := newTestStore(tst, factory)

			got, err := store.Read(ctx, "/missing.ipynb")
			if err != nil {
				tst.Fatalf("Expected no error for absent file, got %v", err)
			}

			if got != nil {
				tst.Errorf("Expected nil content for absent file, got %q", got)
			}
		})
	}
}

// TestAllBackends_DeleteThenRead verifies that a deleted file reads back as
// absent rather than failing.
func TestAllBackends_DeleteThenRead(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := context.Background()
			store, _ := newTestStore(tst, factory)

			if err := store.Write(ctx, "/scratch.ipynb", []byte("{}")); err != nil {
				tst.Fatalf("Write failed: %v", err)
			}

			if err := store.Delete(ctx, "/scratch.ipynb"); err != nil {
				tst.Fatalf("Delete failed: %v", err)
			}

			got, err := store.Read(ctx, "/scratch.ipynb")
			if err != nil {
				tst.Fatalf("Expected no error after delete, got %v", err)
			}
			if got != nil {
				tst.Errorf("Expected nil content after delete, got %q", got)
			}

			if err := store.Delete(ctx, "/scratch.ipynb"); !errors.Is(err, notestore.ErrNotExist) {
				tst.Errorf("Expected ErrNotExist deleting twice, got %v", err)
			}
		})
	}
}

// TestAllBackends_ListScope verifies shallow versus recursive listing, the
// notebook content filter, and the directory marker invariant.
func TestAllBackends_ListScope(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := context.Background()
			store, fsRoot := newTestStore(tst, factory)

			prepareDirectories(tst, fsRoot, "a/b")

			files := map[string]string{
				"/a/x.ipynb":   "x",
				"/a/b/y.ipynb": "y",
				"/a/notes.txt": "ignored",
			}
			for path, data := range files {
				if err := store.Write(ctx, path, []byte(data)); err != nil {
					tst.Fatalf("Write %s failed: %v", path, err)
				}
			}

			shallow, err := store.List(ctx, "/a/", false)
			if err != nil {
				tst.Fatalf("List shallow failed: %v", err)
			}
			if got := resourcePaths(shallow); !equalPaths(got, []string{"/a/b/", "/a/x.ipynb"}) {
				tst.Errorf("Shallow listing mismatch: %v", got)
			}

			recursive, err := store.List(ctx, "/a/", true)
			if err != nil {
				tst.Fatalf("List recursive failed: %v", err)
			}
			if got := resourcePaths(recursive); !equalPaths(got, []string{"/a/b/", "/a/b/y.ipynb", "/a/x.ipynb"}) {
				tst.Errorf("Recursive listing mismatch: %v", got)
			}

			for _, resource := range recursive {
				marked := resource.Path[len(resource.Path)-1] == '/'
				if marked != resource.IsDirectory {
					tst.Errorf("Directory marker mismatch for %s (IsDirectory=%t)", resource.Path, resource.IsDirectory)
				}
				if resource.LastModified == "" {
					tst.Errorf("Missing last-modified for %s", resource.Path)
				}
			}
		})
	}
}

// TestAllBackends_ListFilePath verifies that listing a path that names a
// file fails the same way on every backend instead of yielding an empty
// result.
func TestAllBackends_ListFilePath(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := context.Background()
			store, _ := newTestStore(tst, factory)

			if err := store.Write(ctx, "/x.ipynb", []byte("{}")); err != nil {
				tst.Fatalf("Write failed: %v", err)
			}

			if _, err := store.List(ctx, "/x.ipynb/", false); !errors.Is(err, notestore.ErrNotDirectory) {
				tst.Errorf("Expected ErrNotDirectory, got %v", err)
			}
		})
	}
}

// TestAllBackends_Move verifies that after a move the source reads back as
// absent and the destination carries the original content.
func TestAllBackends_Move(t *testing.T) {
	for name, factory := range GetTestStorageFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := context.Background()
			store, fsRoot := newTestStore(tst, factory)

			prepareDirectories(tst, fsRoot, "a")

			content := []byte(`{"cells":["original"]}`)
			if err := store.Write(ctx, "/a/x.ipynb", content); err != nil {
				tst.Fatalf("Write failed: %v", err)
			}

			if err := store.Move(ctx, "/a/x.ipynb", "/a/z.ipynb"); err != nil {
				tst.Fatalf("Move failed: %v", err)
			}

			gone, err := store.Read(ctx, "/a/x.ipynb")
			if err != nil {
				tst.Fatalf("Read of moved source failed: %v", err)
			}
			if gone != nil {
				tst.Errorf("Expected nil content at old path, got %q", gone)
			}

			moved, err := store.Read(ctx, "/a/z.ipynb")
			if err != nil {
				tst.Fatalf("Read of destination failed: %v", err)
			}
			if !bytes.Equal(moved, content) {
				tst.Errorf("Expected %q at new path, got %q", content, moved)
			}
		})
	}
}

// TestStore_MountResolution verifies that paths are routed to the backend
// at the longest matching prefix and listing results are rebased into the
// store namespace.
func TestStore_MountResolution(t *testing.T) {
	ctx := context.Background()

	store := notestore.NewStore(notestore.WithLogLevel(log.Error))
	if err := store.Mount(ctx, "/", memory.NewMemoryStorage()); err != nil {
		t.Fatalf("Mount / failed: %v", err)
	}
	if err := store.Mount(ctx, "/team/", memory.NewMemoryStorage()); err != nil {
		t.Fatalf("Mount /team/ failed: %v", err)
	}
	defer store.Shutdown(ctx)

	if err := store.Write(ctx, "/team/shared.ipynb", []byte("team")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// The root mount must not see what went into the nested mount
	if got, err := store.Read(ctx, "/shared.ipynb"); err != nil || got != nil {
		t.Errorf("Expected absent on root mount, got %q / %v", got, err)
	}

	resources, err := store.List(ctx, "/team/", false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := resourcePaths(resources); !equalPaths(got, []string{"/team/shared.ipynb"}) {
		t.Errorf("Expected rebased paths, got %v", got)
	}

	// Parents with child mounts refuse to unmount
	if err := store.Unmount(ctx, "/"); !errors.Is(err, notestore.ErrMountBusy) {
		t.Errorf("Expected ErrMountBusy unmounting parent first, got %v", err)
	}
	if err := store.Unmount(ctx, "/team/"); err != nil {
		t.Errorf("Unmount /team/ failed: %v", err)
	}
	if err := store.Unmount(ctx, "/"); err != nil {
		t.Errorf("Unmount / failed: %v", err)
	}
	if err := store.Unmount(ctx, "/team/"); !errors.Is(err, notestore.ErrNotMounted) {
		t.Errorf("Expected ErrNotMounted, got %v", err)
	}
}

// TestStore_ReadOnlyMount verifies that mutating operations are rejected on
// read-only mounts while reads and listings still work.
func TestStore_ReadOnlyMount(t *testing.T) {
	ctx := context.Background()

	storage := memory.NewMemoryStorage()
	if err := storage.Write(ctx, "/frozen.ipynb", []byte("{}")); err != nil {
		t.Fatalf("Seed write failed: %v", err)
	}

	store := notestore.NewStore(notestore.WithLogLevel(log.Error))
	if err := store.Mount(ctx, "/", storage, notestore.AsReadOnly()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer store.Shutdown(ctx)

	if err := store.Write(ctx, "/frozen.ipynb", []byte("update")); !errors.Is(err, notestore.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly on write, got %v", err)
	}
	if err := store.Delete(ctx, "/frozen.ipynb"); !errors.Is(err, notestore.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly on delete, got %v", err)
	}
	if err := store.Move(ctx, "/frozen.ipynb", "/thawed.ipynb"); !errors.Is(err, notestore.ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly on move, got %v", err)
	}

	got, err := store.Read(ctx, "/frozen.ipynb")
	if err != nil || got == nil {
		t.Errorf("Expected read to succeed on read-only mount, got %q / %v", got, err)
	}
}

func resourcePaths(resources []notestore.Resource) []string {
	paths := make([]string, 0, len(resources))
	for _, resource := range resources {
		paths = append(paths, resource.Path)
	}
	sort.Strings(paths)

	return paths
}

func equalPaths(got, expected []string) bool {
	if len(got) != len(expected) {
		return false
	}
	for i := range got {
		if got[i] != expected[i] {
			return false
		}
	}

	return true
}
