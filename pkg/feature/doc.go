// Package feature implements the feature gating core for the Humanyze
// platform: flag definitions, per-user overrides, and the decision engine
// that resolves a (flag, user, tier) triple into an on/off answer.
//
// # Architecture
//
// The package separates three roles:
//
//  1. Store - keyed persistence for flags and overrides (memory, JSON file,
//     Postgres)
//  2. Registry - the write path: CRUD with duplicate-key enforcement,
//     tri-state partial updates and cascading override deletion
//  3. Engine - the read path: evaluates the precedence chain per request
//
// The Engine applies rules strictly in order, first match wins: flag
// existence, global kill switch, activation window, per-user override,
// subscription tier gate, percentage rollout. An unknown flag evaluates to
// off (fail-closed) and is logged; missing user or tier context skips the
// rollout and tier rules respectively (fail-open), which keeps anonymous
// and unbilled traffic working when a gate doesn't need identity.
//
// # Usage
//
//	store := feature.NewMemoryStore()
//	registry := feature.NewRegistry(store)
//	engine := feature.NewEngine(store)
//
//	_, err := registry.CreateFlag(ctx, feature.NewFlag("beta-export", "Beta export",
//		feature.WithMinTier(feature.TierPro),
//		feature.WithRollout(50),
//	))
//	if err != nil {
//		// Handle error
//	}
//
//	if engine.IsEnabled(ctx, "beta-export", userID, feature.TierPro) {
//		// Serve the feature
//	}
//
// # Rollout determinism
//
// Percentage rollouts bucket users with an FNV-1a 64-bit hash of
// "{userID}:{flagKey}", so a user's answer for a flag is stable across
// processes and restarts until the percentage itself changes. See
// RolloutBucket for the exact contract.
//
// # Caching
//
// DecisionCache memoizes engine answers per (flag, user) pair for a short
// TTL (60s by default). Two implementations are provided: an in-process
// bounded cache and a Redis-backed one for multi-process deployments.
// Cache staleness is the only consistency guarantee after a mutation;
// callers that need read-your-write semantics must Clear the cache.
//
// # Errors
//
// Registry mutations surface sentinel errors (ErrDuplicateKey,
// ErrFlagNotFound, ErrOverrideNotFound, ErrInvalidFlag) checked with
// errors.Is. Engine evaluation never returns an error: inconsistencies
// degrade to a boolean and a log line.
package feature
