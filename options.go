package notestore

import "github.com/averok/notestore/log"

type StoreOptions struct {
	Logger *log.Logger
}

type StoreOption func(*StoreOptions)

func newDefaultStoreOptions() *StoreOptions {
	return &StoreOptions{
		Logger: log.NewLogger("notestore", log.Warn, "", false),
	}
}

// WithLogger replaces the default logger with a preconfigured one.
func WithLogger(logger *log.Logger) StoreOption {
	return func(so *StoreOptions) {
		so.Logger = logger
	}
}

// WithLogLevel keeps the default logger but adjusts its level.
func WithLogLevel(level log.LogLevel) StoreOption {
	return func(so *StoreOptions) {
		so.Logger.Level = level
	}
}

type MountOptions struct {
	ReadOnly bool // Whether the mount rejects delete, move and write.
}

type MountOption func(*MountOptions)

func newDefaultMountOptions() *MountOptions {
	return &MountOptions{
		ReadOnly: false,
	}
}

// AsReadOnly marks this mount as read-only.
func AsReadOnly() MountOption {
	return func(mo *MountOptions) {
		mo.ReadOnly = true
	}
}
