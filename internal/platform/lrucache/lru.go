package lrucache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity applies when New is given a non-positive capacity.
const DefaultCapacity = 1000

// Cache is a fixed-capacity, concurrency-safe LRU map with hit, miss and
// eviction counters. Get promotes and counts, Peek does neither, and
// eviction of the oldest entry is atomic with the insert that causes it.
type Cache[K comparable, V any] struct {
	inner    *lru.Cache[K, V]
	capacity int

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[K, V]{capacity: capacity}
	// NewWithEvict only fails for a non-positive size.
	inner, err := lru.NewWithEvict[K, V](capacity, func(K, V) { c.evictions.Add(1) })
	if err != nil {
		panic(err)
	}
	c.inner = inner
	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Peek reads without promoting or touching the counters.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	return c.inner.Peek(key)
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.inner.Add(key, value)
}

func (c *Cache[K, V]) Len() int {
	return c.inner.Len()
}

// Purge drops all entries and resets counters.
func (c *Cache[K, V]) Purge() {
	c.inner.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.inner.Len(),
		Capacity:  c.capacity,
	}
}
