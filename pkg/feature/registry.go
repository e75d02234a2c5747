package feature

import (
	"context"
	"sync"
	"time"
)

// Registry owns the write path for flags and overrides. All mutations go
// through it so the "check then write" sequences (duplicate keys, referential
// checks, cascades) are serialized behind a single mutex even when the
// underlying store has no transactional guarantees. Reads pass straight
// through to the store.
type Registry struct {
	store Store
	mu    sync.Mutex
	now   func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the registry's time source. Used in tests to pin
// timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry backed by the given store.
// Panics if store is nil to fail fast during initialization.
func NewRegistry(store Store, opts ...RegistryOption) *Registry {
	if store == nil {
		panic("feature: store is required")
	}
	r := &Registry{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetFlag returns the flag with the given key or ErrFlagNotFound.
func (r *Registry) GetFlag(ctx context.Context, key string) (*Flag, error) {
	return r.store.GetFlag(ctx, key)
}

// ListFlags returns all flag definitions. Order is not significant.
func (r *Registry) ListFlags(ctx context.Context) ([]*Flag, error) {
	return r.store.ListFlags(ctx)
}

// CreateFlag validates and stores a new flag, setting both timestamps.
// Returns ErrDuplicateKey if a flag with the same key already exists; the
// existing record is left untouched in that case.
func (r *Registry) CreateFlag(ctx context.Context, flag *Flag) (*Flag, error) {
	if err := flag.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := flag.Clone()
	now := r.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := r.store.InsertFlag(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateFlag applies a partial update to an existing flag. Fields not
// supplied in the patch are left unchanged; the nullable fields can be
// explicitly cleared. UpdatedAt is always refreshed.
// Returns ErrFlagNotFound if the key does not exist.
func (r *Registry) UpdateFlag(ctx context.Context, key string, patch FlagPatch) (*Flag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flag, err := r.store.GetFlag(ctx, key)
	if err != nil {
		return nil, err
	}

	patch.applyTo(flag)
	flag.UpdatedAt = r.now()

	if err := flag.Validate(); err != nil {
		return nil, err
	}
	if err := r.store.UpdateFlag(ctx, flag); err != nil {
		return nil, err
	}
	return flag, nil
}

// DeleteFlag removes a flag and cascades deletion of all its overrides.
// Returns ErrFlagNotFound if no flag with the key exists.
func (r *Registry) DeleteFlag(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.DeleteFlag(ctx, key); err != nil {
		return err
	}
	// Cascade is explicit rather than delegated to a foreign-key constraint
	// so it behaves identically across all store implementations.
	_, err := r.store.DeleteOverridesForFlag(ctx, key)
	return err
}

// GetOverride returns the override for the (flag, user) pair or
// ErrOverrideNotFound.
func (r *Registry) GetOverride(ctx context.Context, flagKey, userID string) (*Override, error) {
	return r.store.GetOverride(ctx, flagKey, userID)
}

// SetOverride creates or updates the per-user override for a flag (upsert
// semantics; exactly one record per pair). The flag must currently exist,
// otherwise ErrFlagNotFound is returned. The referential check applies at
// creation only; a later flag deletion cascades explicitly instead.
func (r *Registry) SetOverride(ctx context.Context, flagKey, userID string, enabled bool) (*Override, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.GetFlag(ctx, flagKey); err != nil {
		return nil, err
	}

	now := r.now()
	o := &Override{
		FlagKey:   flagKey,
		UserID:    userID,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.UpsertOverride(ctx, o); err != nil {
		return nil, err
	}
	return r.store.GetOverride(ctx, flagKey, userID)
}

// DeleteOverride removes the override for the pair.
// Returns ErrOverrideNotFound if no such override exists.
func (r *Registry) DeleteOverride(ctx context.Context, flagKey, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.DeleteOverride(ctx, flagKey, userID)
}

// DeleteOverridesForFlag removes every override for the flag key and
// returns the number removed.
func (r *Registry) DeleteOverridesForFlag(ctx context.Context, flagKey string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.DeleteOverridesForFlag(ctx, flagKey)
}
