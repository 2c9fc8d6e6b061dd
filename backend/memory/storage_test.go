package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/averok/notestore"
)

func newTestStorage(t *testing.T) *MemoryStorage {
	storage := NewMemoryStorage()
	if err := storage.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	return storage
}

// TestMemoryStorage_DirectoryMove verifies that moving a virtual directory
// rekeys every descendant in one step.
func TestMemoryStorage_DirectoryMove(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	files := map[string]string{
		"/a/x.ipynb":   "x",
		"/a/b/y.ipynb": "y",
	}
	for path, data := range files {
		if err := storage.Write(ctx, path, []byte(data)); err != nil {
			t.Fatalf("Write %s failed: %v", path, err)
		}
	}

	if err := storage.Move(ctx, "/a/", "/renamed/"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	for path, data := range map[string]string{
		"/renamed/x.ipynb":   "x",
		"/renamed/b/y.ipynb": "y",
	} {
		got, err := storage.Read(ctx, path)
		if err != nil {
			t.Fatalf("Read %s failed: %v", path, err)
		}
		if !bytes.Equal(got, []byte(data)) {
			t.Errorf("Expected %q at %s, got %q", data, path, got)
		}
	}

	if got, err := storage.Read(ctx, "/a/x.ipynb"); err != nil || got != nil {
		t.Errorf("Expected old path to be absent, got %q / %v", got, err)
	}
}

// TestMemoryStorage_DirectoryMoveOntoFile verifies that a directory cannot
// be moved onto a key occupied by a file, which would leave the key acting
// as both file and directory prefix.
func TestMemoryStorage_DirectoryMoveOntoFile(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.Write(ctx, "/a/x.ipynb", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := storage.Write(ctx, "/taken.ipynb", []byte("t")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := storage.Move(ctx, "/a/", "/taken.ipynb"); !errors.Is(err, notestore.ErrNotDirectory) {
		t.Errorf("Expected ErrNotDirectory, got %v", err)
	}

	// Both the file and the directory content stay untouched
	if got, err := storage.Read(ctx, "/taken.ipynb"); err != nil || string(got) != "t" {
		t.Errorf("Destination file changed: %q / %v", got, err)
	}
	if got, err := storage.Read(ctx, "/a/x.ipynb"); err != nil || string(got) != "x" {
		t.Errorf("Source directory changed: %q / %v", got, err)
	}
}

// TestMemoryStorage_DirectoryCollisions verifies that virtual directories
// cannot be read, overwritten, or deleted while files live beneath them.
func TestMemoryStorage_DirectoryCollisions(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.Write(ctx, "/a/x.ipynb", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := storage.Read(ctx, "/a/"); !errors.Is(err, notestore.ErrIsDirectory) {
		t.Errorf("Expected ErrIsDirectory on read, got %v", err)
	}
	if err := storage.Write(ctx, "/a", []byte("clobber")); !errors.Is(err, notestore.ErrIsDirectory) {
		t.Errorf("Expected ErrIsDirectory on write, got %v", err)
	}
	if err := storage.Delete(ctx, "/a/"); !errors.Is(err, notestore.ErrDirectoryNotEmpty) {
		t.Errorf("Expected ErrDirectoryNotEmpty, got %v", err)
	}

	if err := storage.Delete(ctx, "/a/x.ipynb"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// With its last file gone the directory no longer exists
	if err := storage.Delete(ctx, "/a/"); !errors.Is(err, notestore.ErrNotExist) {
		t.Errorf("Expected ErrNotExist once empty, got %v", err)
	}
}

// TestMemoryStorage_WriteIsolation verifies that callers cannot mutate
// stored content through the slices they passed in or read back.
func TestMemoryStorage_WriteIsolation(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	data := []byte("original")
	if err := storage.Write(ctx, "/x.ipynb", data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data[0] = 'X'

	got, err := storage.Read(ctx, "/x.ipynb")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("Stored content was mutated: %q", got)
	}

	got[0] = 'Y'
	again, err := storage.Read(ctx, "/x.ipynb")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(again) != "original" {
		t.Errorf("Read buffer aliases storage: %q", again)
	}
}
