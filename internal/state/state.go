// Package state persists the dashboard's active panel between runs.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ActivePanelKey is the single key stored in the state file.
const ActivePanelKey = "vodum_active_tab"

// Store reads and writes the persisted active panel.
type Store interface {
	// Load returns the stored panel name, or "" if nothing is stored.
	Load() (string, error)
	// Save stores name, replacing any previous value.
	Save(name string) error
}

// DefaultPath returns $XDG_STATE_HOME/vodum/state.yaml, falling back to
// ~/.local/state/vodum/state.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "vodum", "state.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "vodum", "state.yaml")
}

// FileStore keeps the state in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path (DefaultPath if empty).
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	return &FileStore{path: path}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store. A missing file is not an error.
func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading state: %w", err)
	}

	var doc map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing state %s: %w", s.path, err)
	}
	return doc[ActivePanelKey], nil
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(map[string]string{ActivePanelKey: name})
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}

// MemoryStore keeps the state in memory. Used by tests and by sessions
// that must not touch disk.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	saves int
}

// NewMemoryStore returns a store preloaded with value.
func NewMemoryStore(value string) *MemoryStore {
	return &MemoryStore{value: value}
}

// Load implements Store.
func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

// Save implements Store.
func (s *MemoryStore) Save(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = name
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
