// Package store persists analyzed profiles between sessions.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/f-sync/followqueue/internal/actionqueue"
)

const (
	// DriverSQLite stores state in a SQLite database file.
	DriverSQLite = "sqlite"
	// DriverJSON stores state as a single JSON document.
	DriverJSON = "json"
	// DriverMemory keeps state in process memory.
	DriverMemory = "memory"

	errMessageUnknownDriver = "unknown store driver"
	errMessageMissingPath   = "store path is required"
	errMessageOpenStore     = "open store"
)

var (
	// ErrUnknownDriver indicates a driver name Open does not support.
	ErrUnknownDriver = errors.New(errMessageUnknownDriver)
	// ErrMissingPath indicates a file-backed driver configured without a path.
	ErrMissingPath = errors.New(errMessageMissingPath)
)

// Config selects and configures a state store.
type Config struct {
	Driver string
	Path   string
}

// Store is a state store that owns resources released by Close.
type Store interface {
	actionqueue.StateStore
	Close() error
}

// Open constructs the store named by the configuration.
func Open(configuration Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(configuration.Driver))
	path := strings.TrimSpace(configuration.Path)

	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverJSON:
		if path == "" {
			return nil, fmt.Errorf("%s: %s: %w", errMessageOpenStore, driver, ErrMissingPath)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, configuration.Driver)
	}

	if driver == DriverJSON {
		return NewJSONFileStore(path), nil
	}
	sqliteStore, err := NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errMessageOpenStore, driver, err)
	}
	return sqliteStore, nil
}
