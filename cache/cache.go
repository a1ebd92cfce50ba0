// Package cache provides a bounded concurrent map used for per-context
// results. Reads and writes never take a global lock. When the map grows past
// twice its capacity a single goroutine trims it back to roughly capacity,
// choosing victims with a pluggable Policy.
package cache

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

type item[V any] struct {
	value V
	used  atomic.Uint64
}

// Cache is a bounded, lock-free key/value cache. The zero value is not usable,
// use New.
type Cache[K comparable, V any] struct {
	m        *xsync.Map[K, *item[V]]
	capacity int
	policy   Policy

	tick     atomic.Uint64
	evicting atomic.Bool
}

// New creates a cache holding about capacity entries. A nil policy selects
// LRU.
func New[K comparable, V any](capacity int, policy Policy) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	if policy == nil {
		policy = LRU{}
	}
	return &Cache[K, V]{
		m:        xsync.NewMap[K, *item[V]](),
		capacity: capacity,
		policy:   policy,
	}
}

// Get returns the cached value for k.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	it, ok := c.m.Load(k)
	if !ok {
		var zero V
		return zero, false
	}
	it.used.Store(c.tick.Add(1))
	return it.value, true
}

// Put stores v under k, replacing any previous value.
func (c *Cache[K, V]) Put(k K, v V) {
	it := &item[V]{value: v}
	it.used.Store(c.tick.Add(1))
	c.m.Store(k, it)
	c.maybeEvict()
}

// GetOrCompute returns the cached value for k, computing and storing it when
// missing. Concurrent callers may compute the same value more than once, the
// first stored value wins.
func (c *Cache[K, V]) GetOrCompute(k K, compute func() V) V {
	if v, ok := c.Get(k); ok {
		return v
	}
	it := &item[V]{value: compute()}
	it.used.Store(c.tick.Add(1))
	actual, loaded := c.m.LoadOrStore(k, it)
	if !loaded {
		c.maybeEvict()
	}
	return actual.value
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	return c.m.Size()
}

// Capacity returns the configured capacity.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.m.Clear()
}

func (c *Cache[K, V]) maybeEvict() {
	if c.m.Size() <= 2*c.capacity {
		return
	}
	if !c.evicting.CompareAndSwap(false, true) {
		return
	}
	defer c.evicting.Store(false)

	var (
		keys   []K
		stamps []uint64
	)
	c.m.Range(func(k K, it *item[V]) bool {
		keys = append(keys, k)
		stamps = append(stamps, it.used.Load())
		return true
	})
	n := len(keys) - c.capacity
	if n <= 0 {
		return
	}
	for _, i := range c.policy.Victims(stamps, n) {
		c.m.Delete(keys[i])
	}
}
