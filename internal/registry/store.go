// Package registry provides the durable mapping from instance name to its
// persisted Record. Records live on the local filesystem as pretty-printed
// JSON, one file per instance at <base>/instances/<name>/instance.json.
// Absence of that file means the instance does not exist.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	pgberrors "github.com/pgbox-dev/pgbox/internal/errors"
)

// StateFileName is the per-instance record file.
const StateFileName = "instance.json"

// Store persists instance records beneath a base directory.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at the given instances directory.
// The directory is created on first write, not here, so read-only commands
// never mutate the filesystem.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Dir returns the directory owned by the named instance.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.baseDir, name)
}

// statePath returns the record file path for the named instance.
func (s *Store) statePath(name string) string {
	return filepath.Join(s.Dir(name), StateFileName)
}

// Save persists the record for the named instance using an atomic write.
// Writing the record is the final step of a successful start, so a crash
// mid-start can lose a record but never fabricate one.
func (s *Store) Save(name string, rec *Record) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	dir := s.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create instance directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	return atomicWriteFile(s.statePath(name), data, 0644)
}

// Load reads the record for the named instance.
// Returns errors.ErrInstanceNotFound if no record exists.
func (s *Store) Load(name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.statePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pgberrors.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record for %q: %w", name, err)
	}
	return &rec, nil
}

// Remove deletes the record file for the named instance, leaving the
// instance directory (and any data directory inside it) untouched.
// Removing an absent record is not an error: stale-record self-healing
// races with nothing.
func (s *Store) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := os.Remove(s.statePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}

// RemoveDir deletes the whole instance directory, record included.
// Used by drop after the data directory has been dealt with.
func (s *Store) RemoveDir(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := os.RemoveAll(s.Dir(name)); err != nil {
		return fmt.Errorf("failed to remove instance directory: %w", err)
	}
	return nil
}

// List returns the names of all instances that have a record on disk,
// sorted lexicographically.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(s.statePath(entry.Name())); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// atomicWriteFile writes data to path via a temp file in the same directory
// followed by a rename, so concurrent readers never observe a partial record.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
