// Package cooldown suppresses re-evaluation of recently alerted tokens for a
// quiet window. The cache is purely in-memory: a restart clears every entry
// and suppressed tokens become eligible again.
package cooldown

import (
	"sync"
	"time"
)

// Cache maps token addresses to suppression expiry timestamps. It is safe for
// concurrent use so per-candidate evaluation can be parallelised without
// racing on the read-then-write of entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]time.Time)}
}

// Suppressed reports whether a token is still inside its quiet window.
// The expiry boundary is inclusive: a token whose entry expires exactly at
// now is still suppressed.
func (c *Cache) Suppressed(tokenAddress string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiry, ok := c.entries[tokenAddress]
	if !ok {
		return false
	}
	return !expiry.Before(now)
}

// SuppressUntil records a suppression deadline for a token, unconditionally
// overwriting any existing entry. Last write wins.
func (c *Cache) SuppressUntil(tokenAddress string, until time.Time) {
	c.mu.Lock()
	c.entries[tokenAddress] = until
	c.mu.Unlock()
}

// Sweep drops expired entries. Stale entries are harmless for correctness
// since expiry is checked by comparison; this only bounds memory on
// long-running processes with high listing churn.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for token, expiry := range c.entries {
		if expiry.Before(now) {
			delete(c.entries, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
