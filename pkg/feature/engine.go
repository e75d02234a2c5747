package feature

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Engine evaluates whether a feature is enabled for a given user. It only
// reads from the store; all mutations go through the Registry. Evaluation
// never returns an error to the request path — every inconsistency resolves
// to a boolean so a misconfigured flag hides the feature instead of breaking
// the request.
type Engine struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithEngineClock replaces the engine's time source for activation-window
// checks. Used in tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a decision engine reading from the given store.
// Panics if store is nil to fail fast during initialization.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	if store == nil {
		panic("feature: store is required")
	}
	e := &Engine{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsEnabled reports whether the feature identified by flagKey is enabled for
// the given user. userID and tier are optional: pass "" when the caller has
// no authenticated user or no billing information.
//
// Rules are applied in order, first match wins:
//
//  1. Unknown flag: off. Logged at WARN so operators can spot gates that
//     reference flags nobody configured.
//  2. Global kill switch: a disabled flag is off for everyone, including
//     users with an enabled override.
//  3. Activation window: off before StartAt and after EndAt. The window is
//     checked before per-user overrides, so an override cannot force a
//     feature on outside its configured window.
//  4. Per-user override: returned verbatim, bypassing tier and rollout.
//  5. Tier gate: off when the user's tier ranks below the flag's minimum.
//     Skipped when the caller supplies no tier (missing billing context
//     degrades permissively).
//  6. Percentage rollout: deterministic per (user, flag) bucket. Skipped
//     for anonymous callers (fail-open), since there is no identity to
//     bucket on.
//  7. Otherwise: on.
func (e *Engine) IsEnabled(ctx context.Context, flagKey, userID string, tier Tier) bool {
	flag, err := e.store.GetFlag(ctx, flagKey)
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			e.log.WarnContext(ctx, "feature flag referenced but not configured",
				slog.String("flag_key", flagKey))
		} else {
			e.log.ErrorContext(ctx, "feature flag lookup failed",
				slog.String("flag_key", flagKey), slog.Any("error", err))
		}
		return false
	}

	if !flag.Enabled {
		return false
	}

	now := e.now()
	if flag.StartAt != nil && now.Before(*flag.StartAt) {
		return false
	}
	if flag.EndAt != nil && now.After(*flag.EndAt) {
		return false
	}

	if userID != "" {
		override, err := e.store.GetOverride(ctx, flagKey, userID)
		switch {
		case err == nil:
			return override.Enabled
		case !errors.Is(err, ErrOverrideNotFound):
			// A broken override lookup falls through to the generic rules
			// rather than failing the request.
			e.log.WarnContext(ctx, "feature override lookup failed",
				slog.String("flag_key", flagKey),
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
	}

	if flag.MinTier != nil && tier != "" {
		if !tier.AtLeast(*flag.MinTier) {
			return false
		}
	}

	if flag.PercentageRollout < 100 && userID != "" {
		return RolloutBucket(userID, flagKey) <= flag.PercentageRollout
	}

	return true
}
