package feature

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It's useful for testing and single-process deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	flags     map[string]*Flag
	overrides map[overrideKey]*Override
}

type overrideKey struct {
	flagKey string
	userID  string
}

// NewMemoryStore creates an empty in-memory flag store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags:     make(map[string]*Flag),
		overrides: make(map[overrideKey]*Override),
	}
}

// GetFlag returns a copy of the stored flag.
func (s *MemoryStore) GetFlag(ctx context.Context, key string) (*Flag, error) {
	s.mu.RLock()
	flag, exists := s.flags[key]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrFlagNotFound
	}
	return flag.Clone(), nil
}

// ListFlags returns copies of all stored flags.
func (s *MemoryStore) ListFlags(ctx context.Context) ([]*Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Flag, 0, len(s.flags))
	for _, flag := range s.flags {
		result = append(result, flag.Clone())
	}
	return result, nil
}

// InsertFlag stores a new flag, rejecting duplicate keys.
func (s *MemoryStore) InsertFlag(ctx context.Context, flag *Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flags[flag.Key]; exists {
		return ErrDuplicateKey
	}
	s.flags[flag.Key] = flag.Clone()
	return nil
}

// UpdateFlag replaces an existing flag.
func (s *MemoryStore) UpdateFlag(ctx context.Context, flag *Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flags[flag.Key]; !exists {
		return ErrFlagNotFound
	}
	s.flags[flag.Key] = flag.Clone()
	return nil
}

// DeleteFlag removes a flag definition.
func (s *MemoryStore) DeleteFlag(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flags[key]; !exists {
		return ErrFlagNotFound
	}
	delete(s.flags, key)
	return nil
}

// GetOverride returns a copy of the stored override.
func (s *MemoryStore) GetOverride(ctx context.Context, flagKey, userID string) (*Override, error) {
	s.mu.RLock()
	o, exists := s.overrides[overrideKey{flagKey, userID}]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrOverrideNotFound
	}
	return o.Clone(), nil
}

// UpsertOverride inserts or updates the override for the pair.
func (s *MemoryStore) UpsertOverride(ctx context.Context, o *Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := overrideKey{o.FlagKey, o.UserID}
	stored := o.Clone()
	if existing, exists := s.overrides[key]; exists {
		stored.CreatedAt = existing.CreatedAt
	}
	s.overrides[key] = stored
	return nil
}

// DeleteOverride removes the override for the pair.
func (s *MemoryStore) DeleteOverride(ctx context.Context, flagKey, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := overrideKey{flagKey, userID}
	if _, exists := s.overrides[key]; !exists {
		return ErrOverrideNotFound
	}
	delete(s.overrides, key)
	return nil
}

// DeleteOverridesForFlag removes every override for a flag key.
func (s *MemoryStore) DeleteOverridesForFlag(ctx context.Context, flagKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.overrides {
		if key.flagKey == flagKey {
			delete(s.overrides, key)
			removed++
		}
	}
	return removed, nil
}
