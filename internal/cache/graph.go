package cache

import (
	"container/list"
	"sync"

	"github.com/atharv3903/meetcast/internal/graph"
	"github.com/atharv3903/meetcast/internal/model"
)

// defaultGraphCapacity is the number of networks kept when no size is given.
const defaultGraphCapacity = 64

type graphEntry struct {
	key string
	val *graph.Graph
}

// GraphCache is a bounded LRU of loaded networks keyed by name.
// It's safe for concurrent use.
type GraphCache struct {
	mu       sync.Mutex
	m        map[string]*list.Element
	ll       *list.List
	capacity int
	// stats
	puts      int
	gets      int
	hits      int
	evictions int
}

func NewGraphCache() *GraphCache {
	return NewGraphCacheWithCap(defaultGraphCapacity)
}

// NewGraphCacheWithCap falls back to the default capacity when capacity <= 0.
func NewGraphCacheWithCap(capacity int) *GraphCache {
	if capacity <= 0 {
		capacity = defaultGraphCapacity
	}
	return &GraphCache{
		m:        make(map[string]*list.Element, capacity),
		ll:       list.New(),
		capacity: capacity,
	}
}

// Get returns the network stored under key and marks it recently used.
func (c *GraphCache) Get(key string) (*graph.Graph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets++
	if el, ok := c.m[key]; ok {
		c.hits++
		c.ll.MoveToFront(el)
		return el.Value.(graphEntry).val, true
	}
	return nil, false
}

// Put inserts or replaces key, evicting the least recently used network
// when over capacity.
func (c *GraphCache) Put(key string, g *graph.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.puts++
	if el, ok := c.m[key]; ok {
		el.Value = graphEntry{key: key, val: g}
		c.ll.MoveToFront(el)
		return
	}

	c.m[key] = c.ll.PushFront(graphEntry{key: key, val: g})

	if c.ll.Len() > c.capacity {
		if tail := c.ll.Back(); tail != nil {
			delete(c.m, tail.Value.(graphEntry).key)
			c.ll.Remove(tail)
			c.evictions++
		}
	}
}

// Invalidate drops key if present. It does not count as an eviction.
func (c *GraphCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.m[key]; ok {
		delete(c.m, key)
		c.ll.Remove(el)
	}
}

func (c *GraphCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Clear drops every entry and resets the stats.
func (c *GraphCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string]*list.Element, c.capacity)
	c.ll.Init()
	c.puts, c.gets, c.hits, c.evictions = 0, 0, 0, 0
}

func (c *GraphCache) Stats() model.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CacheStats{Gets: c.gets, Hits: c.hits, Puts: c.puts, Evictions: c.evictions}
}
