package feature

import (
	"context"
	"time"

	"github.com/humanyze/flagkit/pkg/cache"
)

// DefaultDecisionTTL bounds how stale a memoized decision may be. Callers
// needing immediate consistency after a flag mutation must call Clear.
const DefaultDecisionTTL = 60 * time.Second

// DefaultDecisionCapacity bounds the in-memory decision cache size.
const DefaultDecisionCapacity = 100_000

// DecisionCache memoizes engine decisions per (flag, user) pair for a short
// TTL so hot request paths don't recompute the precedence chain on every hit.
// Implementations must be safe for concurrent use.
type DecisionCache interface {
	// Get returns the cached decision and whether a fresh entry existed.
	Get(ctx context.Context, flagKey, userID string) (enabled, ok bool)

	// Set stores a decision with a fresh timestamp.
	Set(ctx context.Context, flagKey, userID string, enabled bool)

	// SetTTL changes the staleness window for subsequent reads.
	SetTTL(ttl time.Duration)

	// Clear drops all cached decisions, e.g. after a flag mutation.
	Clear(ctx context.Context)
}

// MemoryDecisionCache is an in-process DecisionCache bounded by capacity,
// evicting the least recently used decisions once full.
type MemoryDecisionCache struct {
	entries *cache.TTLCache[string, bool]
}

// NewMemoryDecisionCache creates a decision cache with the default TTL and
// capacity.
func NewMemoryDecisionCache() *MemoryDecisionCache {
	return NewMemoryDecisionCacheWith(DefaultDecisionCapacity, DefaultDecisionTTL)
}

// NewMemoryDecisionCacheWith creates a decision cache with an explicit
// capacity and TTL.
func NewMemoryDecisionCacheWith(capacity int, ttl time.Duration) *MemoryDecisionCache {
	return &MemoryDecisionCache{
		entries: cache.NewTTLCache[string, bool](capacity, ttl),
	}
}

func (c *MemoryDecisionCache) Get(ctx context.Context, flagKey, userID string) (bool, bool) {
	return c.entries.Get(decisionKey(flagKey, userID))
}

func (c *MemoryDecisionCache) Set(ctx context.Context, flagKey, userID string, enabled bool) {
	c.entries.Put(decisionKey(flagKey, userID), enabled)
}

func (c *MemoryDecisionCache) SetTTL(ttl time.Duration) {
	c.entries.SetTTL(ttl)
}

func (c *MemoryDecisionCache) Clear(ctx context.Context) {
	c.entries.Clear()
}

func decisionKey(flagKey, userID string) string {
	return flagKey + ":" + userID
}
