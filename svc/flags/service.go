package flags

import (
	"context"
	"log/slog"

	"github.com/humanyze/flagkit/pkg/feature"
)

// Service bundles the flag registry, decision engine and decision cache into
// the surface the HTTP layer works with. Decisions are read through the
// cache; every mutation clears it so admins never wait a full TTL to see
// their change take effect.
type Service struct {
	registry *feature.Registry
	engine   *feature.Engine
	cache    feature.DecisionCache
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a flags service. Panics if any dependency is nil to fail fast
// during initialization.
func New(registry *feature.Registry, engine *feature.Engine, cache feature.DecisionCache, opts ...Option) *Service {
	if registry == nil {
		panic("flags: registry is required")
	}
	if engine == nil {
		panic("flags: engine is required")
	}
	if cache == nil {
		panic("flags: decision cache is required")
	}
	s := &Service{
		registry: registry,
		engine:   engine,
		cache:    cache,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnabled resolves a decision through the cache, falling back to the
// engine on a miss and memoizing the fresh answer.
func (s *Service) IsEnabled(ctx context.Context, flagKey, userID string, tier feature.Tier) bool {
	if enabled, ok := s.cache.Get(ctx, flagKey, userID); ok {
		return enabled
	}
	enabled := s.engine.IsEnabled(ctx, flagKey, userID, tier)
	s.cache.Set(ctx, flagKey, userID, enabled)
	return enabled
}

// GetFlag returns a single flag definition.
func (s *Service) GetFlag(ctx context.Context, key string) (*feature.Flag, error) {
	return s.registry.GetFlag(ctx, key)
}

// ListFlags returns all flag definitions.
func (s *Service) ListFlags(ctx context.Context) ([]*feature.Flag, error) {
	return s.registry.ListFlags(ctx)
}

// CreateFlag stores a new flag and invalidates cached decisions.
func (s *Service) CreateFlag(ctx context.Context, flag *feature.Flag) (*feature.Flag, error) {
	created, err := s.registry.CreateFlag(ctx, flag)
	if err != nil {
		return nil, err
	}
	s.cache.Clear(ctx)
	return created, nil
}

// UpdateFlag applies a partial update and invalidates cached decisions.
func (s *Service) UpdateFlag(ctx context.Context, key string, patch feature.FlagPatch) (*feature.Flag, error) {
	updated, err := s.registry.UpdateFlag(ctx, key, patch)
	if err != nil {
		return nil, err
	}
	s.cache.Clear(ctx)
	return updated, nil
}

// DeleteFlag removes a flag (cascading its overrides) and invalidates
// cached decisions.
func (s *Service) DeleteFlag(ctx context.Context, key string) error {
	if err := s.registry.DeleteFlag(ctx, key); err != nil {
		return err
	}
	s.cache.Clear(ctx)
	return nil
}

// GetOverride returns the override for the (flag, user) pair.
func (s *Service) GetOverride(ctx context.Context, flagKey, userID string) (*feature.Override, error) {
	return s.registry.GetOverride(ctx, flagKey, userID)
}

// SetOverride upserts a per-user override and invalidates cached decisions.
func (s *Service) SetOverride(ctx context.Context, flagKey, userID string, enabled bool) (*feature.Override, error) {
	o, err := s.registry.SetOverride(ctx, flagKey, userID, enabled)
	if err != nil {
		return nil, err
	}
	s.cache.Clear(ctx)
	return o, nil
}

// DeleteOverride removes a per-user override and invalidates cached decisions.
func (s *Service) DeleteOverride(ctx context.Context, flagKey, userID string) error {
	if err := s.registry.DeleteOverride(ctx, flagKey, userID); err != nil {
		return err
	}
	s.cache.Clear(ctx)
	return nil
}

// DeleteOverridesForFlag removes every override for a flag and invalidates
// cached decisions. Returns the number of overrides removed.
func (s *Service) DeleteOverridesForFlag(ctx context.Context, flagKey string) (int, error) {
	n, err := s.registry.DeleteOverridesForFlag(ctx, flagKey)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.cache.Clear(ctx)
	}
	return n, nil
}
