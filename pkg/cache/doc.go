// Package cache provides a generic, thread-safe TTL cache with a hard
// capacity bound and LRU eviction.
//
// Entries expire a fixed duration after they were stored and are dropped
// lazily when read, so there is no background sweeper goroutine to manage.
// The capacity bound keeps memory use predictable under churn: once full,
// the least recently used entry makes room for new ones.
//
//	c := cache.NewTTLCache[string, bool](10_000, time.Minute)
//	c.Put("beta-export:u1", true)
//	if v, ok := c.Get("beta-export:u1"); ok {
//		// use v
//	}
package cache
