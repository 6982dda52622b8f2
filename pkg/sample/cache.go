package sample

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sndcore/dawengine/pkg/core"
	"github.com/sndcore/dawengine/pkg/telemetry"
	"golang.org/x/sync/semaphore"
)

// VariantKey identifies one processed variant of an original buffer (spec
// §4.3 "Second level holds processed variants keyed by (original_id,
// normalization, reverse, trim, gain)").
type VariantKey struct {
	OriginalID    core.ID
	Normalization float64
	Reverse       bool
	TrimStart     int
	TrimEnd       int
	Gain          float64
}

func (k VariantKey) cacheKey() string {
	return fmt.Sprintf("%s|%.4f|%t|%d|%d|%.4f", k.OriginalID, k.Normalization, k.Reverse, k.TrimStart, k.TrimEnd, k.Gain)
}

// Cache is the two-level buffer cache: a map of immutable originals
// (control-thread writes, audio-thread reads only after Get) and an
// LRU-evicted map of lazily-built processed variants bounded by a byte cap.
type Cache struct {
	mu        sync.RWMutex
	originals map[core.ID]*Buffer

	variants   map[string]*list.Element // cacheKey -> lru element
	lru        *list.List               // front = most recently used
	totalBytes int64
	maxBytes   int64

	sem *semaphore.Weighted

	counters *telemetry.Counters
}

type variantEntry struct {
	key    string
	buffer *Buffer
	bytes  int64
}

// NewCache creates a buffer cache with the given max bytes for the
// processed-variant level. The original level is never evicted; it is
// the engine's source of truth for loaded samples.
func NewCache(maxBytes int64, counters *telemetry.Counters) *Cache {
	return &Cache{
		originals: make(map[core.ID]*Buffer),
		variants:  make(map[string]*list.Element),
		lru:       list.New(),
		maxBytes:  maxBytes,
		sem:       semaphore.NewWeighted(4),
		counters:  counters,
	}
}

// AddOriginal registers a decoded original buffer, making it resident.
func (c *Cache) AddOriginal(b *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.originals[b.ID] = b
}

// Original looks up a resident original buffer. The audio thread must
// never call this for a buffer it hasn't already confirmed resident via
// IsResident, since a miss here means silence for the voice (spec §4.3
// "must never block the audio thread on buffer decode").
func (c *Cache) Original(id core.ID) (*Buffer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.originals[id]
	return b, ok
}

// IsResident reports whether the original buffer is loaded.
func (c *Cache) IsResident(id core.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.originals[id]
	return ok
}

// Variant returns a cached processed variant if present, touching its LRU
// position. It never builds a variant itself (that happens via
// GetOrBuild on a background worker) so audio-thread callers never block.
func (c *Cache) Variant(key VariantKey) (*Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.variants[key.cacheKey()]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*variantEntry).buffer, true
}

// buildFunc produces a processed variant from its original. Supplied by
// the sample engine so the cache stays agnostic to the DSP involved.
type buildFunc func(original *Buffer, key VariantKey) *Buffer

// GetOrBuild returns a cached variant, or schedules it to be built on a
// bounded background worker pool and returns (nil, false) immediately if
// not yet ready. Control-thread only — the audio thread must use Variant.
func (c *Cache) GetOrBuild(ctx context.Context, key VariantKey, build buildFunc) (*Buffer, bool) {
	if b, ok := c.Variant(key); ok {
		return b, true
	}
	original, ok := c.Original(key.OriginalID)
	if !ok {
		if c.counters != nil {
			c.counters.RecordBufferMiss(string(key.OriginalID))
		}
		return nil, false
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	go func() {
		defer c.sem.Release(1)
		variant := build(original, key)
		c.insertVariant(key, variant)
	}()
	return nil, false
}

func (c *Cache) insertVariant(key VariantKey, b *Buffer) {
	bytes := int64(0)
	for _, ch := range b.Channels {
		bytes += int64(len(ch)) * 4
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &variantEntry{key: key.cacheKey(), buffer: b, bytes: bytes}
	elem := c.lru.PushFront(entry)
	c.variants[entry.key] = elem
	c.totalBytes += bytes

	for c.totalBytes > c.maxBytes && c.lru.Len() > 0 {
		back := c.lru.Back()
		if back == nil {
			break
		}
		victim := back.Value.(*variantEntry)
		c.lru.Remove(back)
		delete(c.variants, victim.key)
		c.totalBytes -= victim.bytes
		log.Debug("buffer cache evicted variant", "key", victim.key, "bytes", victim.bytes)
	}
}

// TotalBytes reports the current processed-variant cache footprint.
func (c *Cache) TotalBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalBytes
}
