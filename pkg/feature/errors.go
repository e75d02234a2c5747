package feature

import "errors"

// Predefined errors for the feature package.
var (
	// ErrDuplicateKey indicates a flag creation with a key that already exists.
	ErrDuplicateKey = errors.New("feature flag key already exists")

	// ErrFlagNotFound indicates that the requested feature flag was not found.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrOverrideNotFound indicates that no override exists for the (flag, user) pair.
	ErrOverrideNotFound = errors.New("feature override not found")

	// ErrInvalidFlag indicates that the provided flag parameters are invalid.
	ErrInvalidFlag = errors.New("invalid feature flag parameters")

	// ErrInvalidTier indicates an unknown subscription tier value.
	ErrInvalidTier = errors.New("unknown subscription tier")

	// ErrStoreFailure indicates a general failure in the underlying flag store.
	ErrStoreFailure = errors.New("feature flag store operation failed")
)
