// Package cache provides a generic, thread-safe LRU (Least Recently Used)
// cache with an optional idle TTL.
//
// The cache evicts the least recently used entry once it reaches its
// capacity, and drops entries that were not read or written for longer than
// the configured TTL. tierkit uses it to keep one initialized entitlement
// resolver per active account without letting the session registry grow
// without bound.
//
// # Key Features
//
//   - Generic over any comparable key type and any value type
//   - Mutex-based synchronization, safe for concurrent use
//   - Capacity-bounded LRU eviction
//   - Optional idle TTL, enforced lazily on Get and eagerly with Prune
//   - Optional eviction callback for cleanup
//   - Injectable clock for deterministic tests
//
// # Usage
//
// Create a cache with a capacity and options:
//
//	sessions := cache.NewLRU[uuid.UUID, *tier.Resolver](1000,
//		cache.WithTTL[uuid.UUID, *tier.Resolver](15*time.Minute),
//	)
//
// Basic operations:
//
//	// Store a value. The previous value is returned when the key existed.
//	sessions.Put(accountID, resolver)
//
//	// Get marks the entry as recently used and refreshes its idle timer.
//	r, ok := sessions.Get(accountID)
//	if !ok {
//		// missing or expired
//	}
//
//	// Remove a single entry or drop everything.
//	sessions.Remove(accountID)
//	sessions.Clear()
//
// # Expiry
//
// With WithTTL set, an entry expires once it has been idle for the TTL. Get
// treats an expired entry as missing and removes it. Entries nobody asks for
// again are only reclaimed by Prune, so long-running processes call it
// periodically:
//
//	ticker := time.NewTicker(time.Minute)
//	defer ticker.Stop()
//	for range ticker.C {
//		if n := sessions.Prune(); n > 0 {
//			log.Debug("pruned idle sessions", slog.Int("count", n))
//		}
//	}
//
// A zero TTL disables expiry and the cache is bounded by capacity alone.
//
// # Eviction Callbacks
//
// WithEvictCallback runs for every entry that leaves the cache through
// capacity eviction, expiry, Remove or Clear:
//
//	c := cache.NewLRU[string, io.Closer](16,
//		cache.WithEvictCallback[string, io.Closer](func(_ string, v io.Closer) {
//			_ = v.Close()
//		}),
//	)
//
// The callback is invoked with the cache lock held and must not call back
// into the cache.
//
// # Testing
//
// WithClock replaces time.Now for expiry checks:
//
//	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
//	c := cache.NewLRU[string, int](2,
//		cache.WithTTL[string, int](time.Minute),
//		cache.WithClock[string, int](func() time.Time { return now }),
//	)
//
// # Performance Characteristics
//
//   - Get, Put and Remove: O(1)
//   - Prune: O(n) over the cached entries
package cache
