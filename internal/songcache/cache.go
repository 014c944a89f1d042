// Package songcache implements the engine's byte-bounded LRU song cache
// (spec.md §4.C, Component C): it owns get_or_load/pin/unpin/set_byte_budget
// and the single-flight coalescing of concurrent loads of the same song
// (spec.md §9 design notes).
package songcache

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/backline-audio/engine/internal/events"
	"github.com/backline-audio/engine/internal/logging"
	"github.com/backline-audio/engine/internal/songloader"
)

var log = logging.ForService("songcache")

// Loader is the subset of songloader.Loader the cache needs.
type Loader interface {
	Load(ctx context.Context, songID string) (*songloader.DecodedSong, error)
}

// CacheWarning is TopicCacheWarning's payload for a budget-below-pinned-set
// condition (spec.md §4.C).
type CacheWarning struct {
	Reason      string
	BudgetBytes int64
	PinnedBytes int64
}

// Stats is the cache's stats() response.
type Stats struct {
	EntryCount  int
	UsedBytes   int64
	BudgetBytes int64
}

type entry struct {
	songID  string
	song    *songloader.DecodedSong
	bytes   int64
	pinRefs int
}

// Cache is a byte-bounded, pinnable LRU of decoded songs.
type Cache struct {
	mu          sync.Mutex
	lru         *list.List // front = most recently used
	items       map[string]*list.Element
	pinCounts   map[string]int // survives eviction so a pin set before load still applies
	usedBytes   int64
	budgetBytes int64

	loader Loader
	bus    *events.Bus
	group  singleflight.Group
	metrics *cacheMetrics
}

func New(loader Loader, bus *events.Bus, budgetBytes int64) *Cache {
	c := &Cache{
		lru:         list.New(),
		items:       make(map[string]*list.Element),
		pinCounts:   make(map[string]int),
		budgetBytes: budgetBytes,
		loader:      loader,
		bus:         bus,
		metrics:     newCacheMetrics(),
	}
	c.metrics.budget.Set(float64(budgetBytes))
	return c
}

func songByteSize(song *songloader.DecodedSong) int64 {
	var total int64
	for _, stem := range song.Stems {
		total += int64(len(stem.Decoded.Samples)) * 4 // float32
	}
	return total
}

// GetOrLoad returns the cached entry (promoting it in LRU order) or loads it
// via the Song Loader, coalescing concurrent misses for the same song id.
func (c *Cache) GetOrLoad(ctx context.Context, songID string) (*songloader.DecodedSong, error) {
	c.mu.Lock()
	if el, ok := c.items[songID]; ok {
		c.lru.MoveToFront(el)
		song := el.Value.(*entry).song
		c.mu.Unlock()
		c.metrics.hits.Inc()
		return song, nil
	}
	c.mu.Unlock()

	c.metrics.misses.Inc()
	result, err, _ := c.group.Do(songID, func() (any, error) {
		song, err := c.loader.Load(ctx, songID)
		if err != nil {
			return nil, err
		}
		c.insert(songID, song)
		return song, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*songloader.DecodedSong), nil
}

func (c *Cache) insert(songID string, song *songloader.DecodedSong) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[songID]; ok {
		c.usedBytes -= existing.Value.(*entry).bytes
		c.lru.Remove(existing)
	}

	e := &entry{songID: songID, song: song, bytes: songByteSize(song), pinRefs: c.pinCounts[songID]}
	el := c.lru.PushFront(e)
	c.items[songID] = el
	c.usedBytes += e.bytes
	c.metrics.used.Set(float64(c.usedBytes))
	c.metrics.entries.Set(float64(len(c.items)))

	c.evictLocked()
}

// Pin marks songID as never-evictable. Safe to call before the song is
// loaded: the pin takes effect as soon as it is inserted.
func (c *Cache) Pin(songID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinCounts[songID]++
	if el, ok := c.items[songID]; ok {
		el.Value.(*entry).pinRefs = c.pinCounts[songID]
	}
}

// Unpin releases one pin reference on songID. The entry becomes evictable
// again once its pin count reaches zero.
func (c *Cache) Unpin(songID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pinCounts[songID] <= 0 {
		return
	}
	c.pinCounts[songID]--
	if c.pinCounts[songID] == 0 {
		delete(c.pinCounts, songID)
	}
	if el, ok := c.items[songID]; ok {
		el.Value.(*entry).pinRefs = c.pinCounts[songID]
	}
	c.evictLocked()
}

// SetByteBudget updates the cap and runs an eviction pass. If the pinned
// set alone exceeds the new budget, the budget is effectively raised to
// cover pins and a cache:warning event is emitted (spec.md §4.C).
func (c *Cache) SetByteBudget(bytes int64) {
	c.mu.Lock()
	c.budgetBytes = bytes
	c.evictLocked()
	effective := c.budgetBytes
	c.mu.Unlock()
	c.metrics.budget.Set(float64(effective))
}

// Clear evicts every unpinned entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry)
		if e.pinRefs == 0 {
			c.removeLocked(el)
		}
		el = prev
	}
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{EntryCount: len(c.items), UsedBytes: c.usedBytes, BudgetBytes: c.budgetBytes}
}

// evictLocked walks the LRU tail-first, skipping pinned entries, until
// used bytes fit the budget or nothing evictable remains (spec.md §4.C
// algorithm). Callers must hold c.mu.
func (c *Cache) evictLocked() {
	var pinnedBytes int64
	for el := c.lru.Front(); el != nil; el = el.Next() {
		if el.Value.(*entry).pinRefs > 0 {
			pinnedBytes += el.Value.(*entry).bytes
		}
	}

	if pinnedBytes > c.budgetBytes {
		log.Warn("pinned set exceeds budget, raising effective budget", "pinned_bytes", pinnedBytes, "budget_bytes", c.budgetBytes)
		c.bus.TryPublish(events.TopicCacheWarning, CacheWarning{
			Reason:      "budget_below_pinned_set",
			BudgetBytes: c.budgetBytes,
			PinnedBytes: pinnedBytes,
		})
		c.budgetBytes = pinnedBytes
	}

	for el := c.lru.Back(); el != nil && c.usedBytes > c.budgetBytes; {
		prev := el.Prev()
		if el.Value.(*entry).pinRefs == 0 {
			c.removeLocked(el)
		}
		el = prev
	}
	c.metrics.used.Set(float64(c.usedBytes))
	c.metrics.entries.Set(float64(len(c.items)))
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.lru.Remove(el)
	delete(c.items, e.songID)
	c.usedBytes -= e.bytes
	c.metrics.evictions.Inc()
}
