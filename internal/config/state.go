package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StateStore persists runtime state in a small JSON file next to the
// config. Updates go through sjson so keys the daemon does not own
// survive rewrites.
type StateStore struct {
	path string
}

// NewStateStore creates a store for the state file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// CurrentMode returns the persisted current mode id, or "" when the
// state file is missing or holds no valid value.
func (s *StateStore) CurrentMode() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return gjson.GetBytes(data, "current_mode").String()
}

// SetCurrentMode persists the current mode id.
func (s *StateStore) SetCurrentMode(id string) error {
	return s.set("current_mode", id)
}

func (s *StateStore) set(key, value string) error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		data = []byte("{}")
	} else if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		// A corrupt state file is not worth failing a mode switch over.
		data = []byte("{}")
	}

	updated, err := sjson.SetBytes(data, key, value)
	if err != nil {
		return fmt.Errorf("updating state key %s: %w", key, err)
	}
	return s.write(updated)
}

// write replaces the state file atomically via a temp file rename.
func (s *StateStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
