package feature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	flagsFileName     = "feature_flags.json"
	overridesFileName = "feature_overrides.json"
)

// JSONFileStore persists flags and overrides as two JSON array files in a
// directory. Every mutation rewrites the whole collection (replace-all
// semantics), which keeps the files trivially inspectable and matches the
// keyed-record contract: the files are the source of truth, nothing is
// cached in memory between calls.
type JSONFileStore struct {
	mu            sync.Mutex
	flagsPath     string
	overridesPath string
}

// NewJSONFileStore creates a file-backed store rooted at dir. The directory
// and empty collection files are created if they don't exist yet.
func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	s := &JSONFileStore{
		flagsPath:     filepath.Join(dir, flagsFileName),
		overridesPath: filepath.Join(dir, overridesFileName),
	}

	for _, path := range []string{s.flagsPath, s.overridesPath} {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := writeJSONFile(path, []struct{}{}); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
	}

	return s, nil
}

// GetFlag returns the flag with the given key.
func (s *JSONFileStore) GetFlag(ctx context.Context, key string) (*Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.readFlags()
	if err != nil {
		return nil, err
	}
	for _, flag := range flags {
		if flag.Key == key {
			return flag, nil
		}
	}
	return nil, ErrFlagNotFound
}

// ListFlags returns all persisted flags.
func (s *JSONFileStore) ListFlags(ctx context.Context) ([]*Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFlags()
}

// InsertFlag appends a new flag, rejecting duplicate keys.
func (s *JSONFileStore) InsertFlag(ctx context.Context, flag *Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.readFlags()
	if err != nil {
		return err
	}
	for _, existing := range flags {
		if existing.Key == flag.Key {
			return ErrDuplicateKey
		}
	}
	flags = append(flags, flag.Clone())
	return writeJSONFile(s.flagsPath, flags)
}

// UpdateFlag replaces the persisted flag with the same key.
func (s *JSONFileStore) UpdateFlag(ctx context.Context, flag *Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.readFlags()
	if err != nil {
		return err
	}
	for i, existing := range flags {
		if existing.Key == flag.Key {
			flags[i] = flag.Clone()
			return writeJSONFile(s.flagsPath, flags)
		}
	}
	return ErrFlagNotFound
}

// DeleteFlag removes the flag with the given key.
func (s *JSONFileStore) DeleteFlag(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.readFlags()
	if err != nil {
		return err
	}
	for i, existing := range flags {
		if existing.Key == key {
			flags = append(flags[:i], flags[i+1:]...)
			return writeJSONFile(s.flagsPath, flags)
		}
	}
	return ErrFlagNotFound
}

// GetOverride returns the override for the (flag, user) pair.
func (s *JSONFileStore) GetOverride(ctx context.Context, flagKey, userID string) (*Override, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrides, err := s.readOverrides()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if o.FlagKey == flagKey && o.UserID == userID {
			return o, nil
		}
	}
	return nil, ErrOverrideNotFound
}

// UpsertOverride inserts or updates the override for the pair.
func (s *JSONFileStore) UpsertOverride(ctx context.Context, o *Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrides, err := s.readOverrides()
	if err != nil {
		return err
	}
	stored := o.Clone()
	for i, existing := range overrides {
		if existing.FlagKey == o.FlagKey && existing.UserID == o.UserID {
			stored.CreatedAt = existing.CreatedAt
			overrides[i] = stored
			return writeJSONFile(s.overridesPath, overrides)
		}
	}
	overrides = append(overrides, stored)
	return writeJSONFile(s.overridesPath, overrides)
}

// DeleteOverride removes the override for the pair.
func (s *JSONFileStore) DeleteOverride(ctx context.Context, flagKey, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrides, err := s.readOverrides()
	if err != nil {
		return err
	}
	for i, existing := range overrides {
		if existing.FlagKey == flagKey && existing.UserID == userID {
			overrides = append(overrides[:i], overrides[i+1:]...)
			return writeJSONFile(s.overridesPath, overrides)
		}
	}
	return ErrOverrideNotFound
}

// DeleteOverridesForFlag removes every override for a flag key.
func (s *JSONFileStore) DeleteOverridesForFlag(ctx context.Context, flagKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrides, err := s.readOverrides()
	if err != nil {
		return 0, err
	}
	kept := overrides[:0]
	for _, existing := range overrides {
		if existing.FlagKey != flagKey {
			kept = append(kept, existing)
		}
	}
	removed := len(overrides) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, writeJSONFile(s.overridesPath, kept)
}

func (s *JSONFileStore) readFlags() ([]*Flag, error) {
	var flags []*Flag
	if err := readJSONFile(s.flagsPath, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

func (s *JSONFileStore) readOverrides() ([]*Override, error) {
	var overrides []*Override
	if err := readJSONFile(s.overridesPath, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrStoreFailure, fmt.Errorf("corrupt store file %s: %w", path, err))
	}
	return nil
}

// writeJSONFile writes atomically via a temp file and rename so a crash
// mid-write never leaves a truncated collection behind.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}
