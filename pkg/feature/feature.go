package feature

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Flag represents a feature flag with its gating configuration.
// The Key is the primary lookup identifier and is immutable after creation.
type Flag struct {
	Key               string            `json:"key"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Enabled           bool              `json:"enabled"`
	MinTier           *Tier             `json:"min_subscription_tier,omitempty"`
	PercentageRollout int               `json:"percentage_rollout"`
	StartAt           *time.Time        `json:"start_date,omitempty"`
	EndAt             *time.Time        `json:"end_date,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at,omitzero"`
	UpdatedAt         time.Time         `json:"updated_at,omitzero"`
}

// Clone returns a deep copy of the flag so callers cannot mutate stored state.
func (f *Flag) Clone() *Flag {
	if f == nil {
		return nil
	}
	c := *f
	if f.MinTier != nil {
		tier := *f.MinTier
		c.MinTier = &tier
	}
	if f.StartAt != nil {
		t := *f.StartAt
		c.StartAt = &t
	}
	if f.EndAt != nil {
		t := *f.EndAt
		c.EndAt = &t
	}
	if f.Metadata != nil {
		c.Metadata = maps.Clone(f.Metadata)
	}
	return &c
}

// Validate checks the flag's invariants before it is accepted by the registry.
func (f *Flag) Validate() error {
	if f == nil {
		return errors.Join(ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if f.Key == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag key cannot be empty"))
	}
	if f.PercentageRollout < 0 || f.PercentageRollout > 100 {
		return errors.Join(ErrInvalidFlag,
			fmt.Errorf("percentage rollout must be between 0 and 100, got %d", f.PercentageRollout))
	}
	if f.MinTier != nil && !f.MinTier.Valid() {
		return errors.Join(ErrInvalidFlag, fmt.Errorf("unknown tier %q", *f.MinTier))
	}
	return nil
}

// FlagOption configures a flag built by NewFlag.
type FlagOption func(*Flag)

// WithDescription sets the flag's display description.
func WithDescription(description string) FlagOption {
	return func(f *Flag) { f.Description = description }
}

// Disabled creates the flag with the global kill switch off.
func Disabled() FlagOption {
	return func(f *Flag) { f.Enabled = false }
}

// WithMinTier gates the flag behind a minimum subscription tier.
func WithMinTier(t Tier) FlagOption {
	return func(f *Flag) { f.MinTier = &t }
}

// WithRollout limits the flag to a percentage of the eligible user population.
func WithRollout(percentage int) FlagOption {
	return func(f *Flag) { f.PercentageRollout = percentage }
}

// WithStartAt activates the flag no earlier than the given time.
func WithStartAt(t time.Time) FlagOption {
	return func(f *Flag) { f.StartAt = &t }
}

// WithEndAt deactivates the flag after the given time.
func WithEndAt(t time.Time) FlagOption {
	return func(f *Flag) { f.EndAt = &t }
}

// WithMetadata attaches opaque key/value metadata to the flag.
// Metadata is passed through unevaluated.
func WithMetadata(md map[string]string) FlagOption {
	return func(f *Flag) { f.Metadata = maps.Clone(md) }
}

// NewFlag builds a flag with the default configuration: globally enabled
// with a 100% rollout and no tier gate or activation window.
func NewFlag(key, name string, opts ...FlagOption) *Flag {
	f := &Flag{
		Key:               key,
		Name:              name,
		Enabled:           true,
		PercentageRollout: 100,
		Metadata:          map[string]string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Override is a per-user forced decision for a specific flag. It bypasses
// tier and rollout checks entirely but never the global kill switch.
// Identity is the (FlagKey, UserID) pair.
type Override struct {
	FlagKey   string    `json:"flag_key"`
	UserID    string    `json:"user_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Clone returns a copy of the override.
func (o *Override) Clone() *Override {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
