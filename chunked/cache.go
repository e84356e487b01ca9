package chunked

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hupe1980/larray/nd"
)

// chunkCache holds decoded chunks in an LRU, with a roaring bitmap of
// resident linear chunk ids for cheap presence checks without touching LRU
// recency.
type chunkCache struct {
	mu       sync.Mutex
	lru      *lru.Cache[string, *nd.Array]
	resident *roaring.Bitmap
	ids      map[string]uint32
	grid     []int
}

func newChunkCache(size int, grid []int) (*chunkCache, error) {
	c := &chunkCache{
		resident: roaring.New(),
		ids:      make(map[string]uint32),
		grid:     grid,
	}
	var err error
	// the evict callback runs inside lru.Add, under c.mu
	c.lru, err = lru.NewWithEvict(size, func(key string, _ *nd.Array) {
		c.onEvict(key)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *chunkCache) onEvict(key string) {
	if id, ok := c.ids[key]; ok {
		c.resident.Remove(id)
		delete(c.ids, key)
	}
}

func (c *chunkCache) get(coords []int) (*nd.Array, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.resident.Contains(linearChunkID(coords, c.grid)) {
		return nil, false
	}
	return c.lru.Get(chunkKey(coords))
}

func (c *chunkCache) add(coords []int, chunk *nd.Array) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := chunkKey(coords)
	id := linearChunkID(coords, c.grid)
	c.ids[key] = id
	c.resident.Add(id)
	c.lru.Add(key, chunk)
}

func (c *chunkCache) contains(coords []int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resident.Contains(linearChunkID(coords, c.grid))
}

func (c *chunkCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}
