// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

// cacheEntry pairs a released value with the identifier it was opened
// for.
type cacheEntry struct {
	id    ID
	value Value
}

// valueCache keeps the most recently released values open for reuse,
// newest first. It is a plain slice deque because checkout and purge
// both need to remove entries from the middle of the queue. All methods
// require the registry lock.
type valueCache struct {
	entries []cacheEntry
	size    int
}

func newValueCache(size int) *valueCache {
	return &valueCache{size: size}
}

// checkout removes and returns the cached value for id, if any.
func (c *valueCache) checkout(id ID) (Value, bool) {
	for i, e := range c.entries {
		if e.id == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return e.value, true
		}
	}
	return nil, false
}

// checkin stores a released value at the front of the queue and returns
// any entries evicted to stay within the size bound. The caller owns
// closing the evicted values.
func (c *valueCache) checkin(id ID, v Value) []cacheEntry {
	c.entries = append([]cacheEntry{{id: id, value: v}}, c.entries...)
	if len(c.entries) <= c.size {
		return nil
	}
	evicted := append([]cacheEntry(nil), c.entries[c.size:]...)
	c.entries = c.entries[:c.size]
	return evicted
}

// purge removes and returns all entries for id.
func (c *valueCache) purge(id ID) []cacheEntry {
	var purged, kept []cacheEntry
	for _, e := range c.entries {
		if e.id == id {
			purged = append(purged, e)
		} else {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	return purged
}

// clear removes and returns all entries.
func (c *valueCache) clear() []cacheEntry {
	entries := c.entries
	c.entries = nil
	return entries
}

func (c *valueCache) len() int {
	return len(c.entries)
}
