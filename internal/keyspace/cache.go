package keyspace

import "sync"

// ContextEntry is everything the cache retains for one context: the key scan
// state, the value scan states keyed by selected key, and view preferences.
type ContextEntry struct {
	Keys   *KeyScanState
	Values map[string]*ValueScanState
	Prefs  ViewPrefs
}

// Cache persists scan states per context so that leaving a view and coming
// back does not re-trigger network traffic. Entries are created on first
// access and never implicitly destroyed; eviction is an app-level policy
// outside this package.
type Cache struct {
	mu      sync.Mutex
	entries map[ContextKey]*ContextEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[ContextKey]*ContextEntry)}
}

// Entry returns the entry for key, creating the fresh default entry when the
// context has never been seen.
func (c *Cache) Entry(key ContextKey) *ContextEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		entry = &ContextEntry{
			Keys:   NewKeyScanState(),
			Values: make(map[string]*ValueScanState),
			Prefs:  ViewPrefs{Delimiter: ":"},
		}
		c.entries[key] = entry
	}
	return entry
}

// Peek returns the entry for key without creating one.
func (c *Cache) Peek(key ContextKey) (*ContextEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Evict drops the entry for key. Only called by explicit app-level policy.
func (c *Cache) Evict(key ContextKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
