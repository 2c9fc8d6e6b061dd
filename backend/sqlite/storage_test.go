package sqlite

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/averok/notestore"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	storage, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	if err := storage.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		storage.Close(context.Background())
	})

	return storage
}

// TestSQLiteStorage_DirectoryMove verifies that moving a virtual directory
// rekeys every descendant in the database and the key index.
func TestSQLiteStorage_DirectoryMove(t *testing.T) {
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

// TestSQLiteStorage_DirectoryMoveOntoFile verifies that a directory cannot
// be moved onto a key occupied by a file, which would leave the key acting
// as both file and directory prefix.
func TestSQLiteStorage_DirectoryMoveOntoFile(t *testing.T) {
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
