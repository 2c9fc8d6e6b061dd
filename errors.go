package notestore

import (
	"errors"
	"sync"
)

// Standard errors that Storage implementations should use.
var (
	// Path errors
	ErrInvalidPath    = errors.New("notestore: invalid path detected")
	ErrNotMounted     = errors.New("notestore: path not mounted")
	ErrAlreadyMounted = errors.New("notestore: path already mounted")
	ErrMountBusy      = errors.New("notestore: mount point busy")
	ErrMountFailed    = errors.New("notestore: mount initialization failed")

	// Operation errors
	ErrNotExist          = errors.New("notestore: file does not exist")
	ErrExist             = errors.New("notestore: file already exists")
	ErrIsDirectory       = errors.New("notestore: is a directory")
	ErrNotDirectory      = errors.New("notestore: not a directory")
	ErrDirectoryNotEmpty = errors.New("notestore: directory not empty")
	ErrPermission        = errors.New("notestore: permission denied")
	ErrReadOnly          = errors.New("notestore: read-only mount")
	ErrInvalid           = errors.New("notestore: invalid argument")
)

type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
