package feature

import "context"

// Store is the persistence contract for flag definitions and per-user
// overrides. Implementations must be safe for concurrent use. The registry
// serializes read-modify-write sequences on top of this interface, so a
// store only needs per-operation atomicity; InsertFlag must still reject
// duplicate keys atomically where the backend supports it (e.g. a unique
// constraint) to stay correct with multiple registry instances.
type Store interface {
	// GetFlag returns the flag with the given key or ErrFlagNotFound.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// ListFlags returns all flag definitions in no particular order.
	ListFlags(ctx context.Context) ([]*Flag, error)

	// InsertFlag stores a new flag. Returns ErrDuplicateKey if the key exists.
	InsertFlag(ctx context.Context, flag *Flag) error

	// UpdateFlag replaces an existing flag. Returns ErrFlagNotFound if absent.
	UpdateFlag(ctx context.Context, flag *Flag) error

	// DeleteFlag removes a flag. Returns ErrFlagNotFound if absent.
	// Overrides are not touched; cascade deletion is the registry's job.
	DeleteFlag(ctx context.Context, key string) error

	// GetOverride returns the override for the pair or ErrOverrideNotFound.
	GetOverride(ctx context.Context, flagKey, userID string) (*Override, error)

	// UpsertOverride inserts the override or, when the (flag, user) pair
	// already exists, updates Enabled and UpdatedAt in place preserving the
	// original CreatedAt. Exactly one record per pair results.
	UpsertOverride(ctx context.Context, o *Override) error

	// DeleteOverride removes the override for the pair.
	// Returns ErrOverrideNotFound if absent.
	DeleteOverride(ctx context.Context, flagKey, userID string) error

	// DeleteOverridesForFlag removes every override for the flag key and
	// returns the number removed. Removing zero overrides is not an error.
	DeleteOverridesForFlag(ctx context.Context, flagKey string) (int, error)
}
