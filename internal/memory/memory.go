// Package memory provides a file-backed state repository. The whole state is
// a single JSON document, written atomically on every save. It is the
// default backend and needs no external service.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"bilancio/internal/store"
)

const stateFileName = "bilancio.json"

// FileRepository persists the state as a JSON file under a data directory.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository creates the data directory if needed and returns a
// repository writing to <dataDir>/bilancio.json.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileRepository{path: filepath.Join(dataDir, stateFileName)}, nil
}

// Load reads the state file. A missing file means a fresh installation and
// reports found=false without error.
func (r *FileRepository) Load(_ context.Context) (*store.State, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state file: %w", err)
	}

	var st store.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("decode state file: %w", err)
	}
	return &st, true, nil
}

// Save writes the state atomically: a temp file in the same directory is
// renamed over the target so a crash never leaves a half-written file.
func (r *FileRepository) Save(_ context.Context, st store.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), stateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Close implements the repository interface. Nothing to release.
func (r *FileRepository) Close() error {
	return nil
}
