package pipeline

import (
	"fmt"
	"sync"

	"github.com/wafermap/wafermap/wafer"
)

// Cache memoizes per-wafer results keyed by dataset contents and the
// parameters that shape them. It is owned by the caller and may be shared
// between pipelines and runs. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Prepared
	hits    int
	misses  int
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Prepared)}
}

// cacheKey combines the dataset fingerprint with every parameter Prepare reads.
func cacheKey(ds *wafer.Dataset, cfg wafer.Config) string {
	ic := cfg.Interpolation
	return fmt.Sprintf("%s|%d|%s|%g|%g|%d",
		ds.Fingerprint(), ic.Resolution, ic.Method, ic.Radius, ic.MaxUnsetFraction, cfg.Zonal.Bins)
}

func (c *Cache) get(key string) (*Prepared, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return p, ok
}

func (c *Cache) put(key string, p *Prepared) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = p
}

// Stats returns the hit and miss counts so far.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
