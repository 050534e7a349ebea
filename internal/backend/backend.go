// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"context"
	"fmt"

	"bilancio/internal/store"
)

// StateRepository loads and saves full state snapshots. Load reports
// found=false for a fresh installation, which is not an error.
type StateRepository interface {
	Load(ctx context.Context) (*store.State, bool, error)
	Save(ctx context.Context, st store.State) error
	Close() error
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the constructed repository and its cleanup function.
type Result struct {
	Repo    StateRepository
	Cleanup CleanupFunc
}

// Type identifies a persistence backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory (file-backed) specific
	DataDirectory string
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}
