package shader

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// cacheShards is the number of cache shards. Must be a power of 2.
	cacheShards = 8
	shardMask   = cacheShards - 1

	// DefaultCacheCapacity is the per-shard capacity of the compile cache.
	DefaultCacheCapacity = 32
)

// CacheStats describes the WGSL compile cache.
type CacheStats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type cacheKey struct {
	code string
	opts CompileOptions
}

// compileCache is a sharded LRU of compiled WGSL modules. Failed compiles
// are not cached.
type compileCache struct {
	shards   [cacheShards]*cacheShard
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[cacheKey]*list.Element
	lru     *list.List
}

type cacheEntry struct {
	key cacheKey
	c   *compiled
}

func newCompileCache(capacity int) *compileCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &compileCache{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &cacheShard{
			entries: make(map[cacheKey]*list.Element),
			lru:     list.New(),
		}
	}
	return c
}

var compiledModules = newCompileCache(DefaultCacheCapacity)

// CompileCacheStats returns a snapshot of the package compile cache
// statistics.
func CompileCacheStats() CacheStats {
	return compiledModules.stats()
}

// ClearCache drops every compiled module from the package compile cache and
// resets its statistics.
func ClearCache() {
	compiledModules.clear()
}

func (c *compileCache) shard(key cacheKey) *cacheShard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key.code)) // fnv.Write never returns an error
	return c.shards[h.Sum64()&shardMask]
}

// getOrCompile returns the cached compilation of code or compiles it.
// The shard stays locked while compiling so a source is compiled once.
func (c *compileCache) getOrCompile(code string, opts CompileOptions) (*compiled, error) {
	key := cacheKey{code: code, opts: opts}
	s := c.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.lru.MoveToFront(e)
		c.hits.Add(1)
		return e.Value.(*cacheEntry).c, nil
	}
	c.misses.Add(1)

	res, err := compileWGSL(code, opts)
	if err != nil {
		return nil, err
	}

	for s.lru.Len() >= c.capacity {
		oldest := s.lru.Back()
		s.lru.Remove(oldest)
		delete(s.entries, oldest.Value.(*cacheEntry).key)
		c.evictions.Add(1)
	}
	s.entries[key] = s.lru.PushFront(&cacheEntry{key: key, c: res})
	return res, nil
}

func (c *compileCache) stats() CacheStats {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return CacheStats{
		Len:       n,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *compileCache) clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[cacheKey]*list.Element)
		s.lru.Init()
		s.mu.Unlock()
	}
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
