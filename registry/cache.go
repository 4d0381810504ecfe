package registry

// Cache resolves handles for a single worker without touching the registry
// lock after the first access to each handle.
//
// A Cache is owned by one goroutine and must not be shared. Entries are
// populated lazily, never evicted and never invalidated; memory grows with
// the highest handle the worker has resolved.
type Cache[T any] struct {
	reg     *Registry[T]
	entries []T
	present []bool

	hits   uint64
	misses uint64
}

// CacheStats reports how a Cache has been used.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// NewCache creates an empty cache in front of reg.
func NewCache[T any](reg *Registry[T]) *Cache[T] {
	return &Cache[T]{reg: reg}
}

// Resolve returns the value for h, consulting the registry only on a miss.
func (c *Cache[T]) Resolve(h Handle) (v T, ok bool) {
	if h < 0 {
		return v, false
	}

	i := int(h)
	if i < len(c.present) && c.present[i] {
		c.hits++
		return c.entries[i], true
	}

	c.misses++
	v, ok = c.reg.Lookup(h)
	if !ok {
		return v, false
	}

	if i >= len(c.entries) {
		c.entries = append(c.entries, make([]T, i+1-len(c.entries))...)
		c.present = append(c.present, make([]bool, i+1-len(c.present))...)
	}
	c.entries[i] = v
	c.present[i] = true
	return v, true
}

// Stats returns hit and miss counters and the number of cached entries.
func (c *Cache[T]) Stats() CacheStats {
	var n int
	for _, p := range c.present {
		if p {
			n++
		}
	}
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: n}
}
