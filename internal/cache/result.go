package cache

import (
	"sync"

	"github.com/atharv3903/meetcast/internal/algo"
	"github.com/atharv3903/meetcast/internal/model"
)

// ResultKey identifies one computation. Stored networks are keyed by
// Network, uploaded bodies by Digest. Epoch changes whenever a stored
// network is replaced.
type ResultKey struct {
	Network string
	Digest  uint64
	Speeds  model.Speeds
	Epoch   uint64
}

type ResultCache struct {
	mu    sync.RWMutex
	epoch uint64
	m     map[ResultKey]algo.Result
}

func NewResultCache() *ResultCache {
	return &ResultCache{m: make(map[ResultKey]algo.Result)}
}

func (c *ResultCache) Get(k ResultKey) (algo.Result, bool) {
	c.mu.RLock()
	v, ok := c.m[k]
	c.mu.RUnlock()
	return v, ok
}

func (c *ResultCache) Put(k ResultKey, r algo.Result) {
	c.mu.Lock()
	c.m[k] = r
	c.mu.Unlock()
}

func (c *ResultCache) Epoch() uint64 {
	c.mu.RLock()
	e := c.epoch
	c.mu.RUnlock()
	return e
}

// BumpEpoch makes every stored-network entry unreachable and drops them.
// Entries keyed by digest stay valid since the body fully determines them.
func (c *ResultCache) BumpEpoch() {
	c.mu.Lock()
	c.epoch++
	for k := range c.m {
		if k.Network != "" {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Clear drops every entry; the epoch keeps counting.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	c.m = make(map[ResultKey]algo.Result)
	c.mu.Unlock()
}
