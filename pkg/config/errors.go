package config

import "errors"

var (
	// ErrNilPointer indicates Load was called with a nil destination.
	ErrNilPointer = errors.New("config: nil pointer passed to Load")

	// ErrParsingConfig indicates environment parsing failed, e.g. a missing
	// required variable or a malformed value.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)
