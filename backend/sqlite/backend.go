// Package sqlite persists the storage namespace in a SQLite database.
// An in-memory B-tree mirrors the key column for fast prefix scans; content
// and modify times live in the database. Use ":memory:" for a throwaway
// store.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/averok/notestore/content"
)

type SQLiteStorage struct {
	mu sync.RWMutex
	db *sql.DB

	// In-memory B-tree for fast key lookups
	keys *btree.Map[string, string]
}

// NewSQLiteStorage creates a SQLite-backed notebook store.
// The dbPath can be ":memory:" for an in-memory database or a file path.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// A single connection keeps ":memory:" databases coherent; the pool
	// would otherwise hand every connection its own empty database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	storage := &SQLiteStorage{
		db:   db,
		keys: btree.NewMap[string, string](0),
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// initSchema creates the database schema.
func (ss *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notestore_objects (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		content BLOB NOT NULL,
		modify_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notestore_objects_key ON notestore_objects(key);
	`

	_, err := ss.db.Exec(schema)
	return err
}

// Returns the identifier name defined for this backend.
func (*SQLiteStorage) Name() string {
	return "sqlite"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (ss *SQLiteStorage) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	// Verify database connection
	if err := ss.db.PingContext(ctx); err != nil {
		return err
	}

	// Load all keys into the in-memory B-tree
	rows, err := ss.db.QueryContext(ctx, "SELECT key, id FROM notestore_objects")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			return err
		}
		ss.keys.Set(key, id)
	}

	return rows.Err()
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (ss *SQLiteStorage) Close(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.keys.Clear()
	return ss.db.Close()
}

func genObjectID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// filePath normalizes a storage path into the canonical file key form:
// leading slash, no trailing slash.
func filePath(path string) string {
	return content.StripTrailingSlash(content.EnsureLeadingSlash(path))
}

// hasChildren reports whether any key lives beneath the given directory
// path. Must be called with lock held.
func (ss *SQLiteStorage) hasChildren(dir string) bool {
	prefix := content.EnsureTrailingSlash(content.EnsureLeadingSlash(dir))
	if prefix == "/" {
		return ss.keys.Len() > 0
	}

	found := false
	ss.keys.Scan(func(key string, _ string) bool {
		if strings.HasPrefix(key, prefix) {
			found = true
			return false
		}
		return true
	})

	return found
}
