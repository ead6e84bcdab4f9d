package spincache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/context-fabric/fabric/resource"
	"github.com/context-fabric/fabric/spin"
)

// Cache is a capacity-bounded, TTL-expiring store of search-result
// handles. It tracks two indexes over the same entries: handle ID (for
// cursor lookups) and Key (for opportunistic reuse of an identical
// search). Eviction is LRU by handle-list position; expiry is checked
// lazily on access rather than swept in the background, since a stale
// entry costs nothing beyond the memory it holds until the next Get,
// Lookup, or Set touches it.
type Cache struct {
	mu        sync.Mutex
	capacity  int64 // bytes, 0 means unlimited
	size      int64
	ttl       time.Duration
	byID      map[string]*list.Element
	byKey     map[Key]string
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type listEntry struct {
	handle *Handle
	size   int64
}

// New creates a result cache with the given capacity in bytes (0 for
// unlimited) and entry TTL. rc, if non-nil, is charged for the same
// bytes so a server embedding multiple caches can bound them jointly.
func New(capacity int64, ttl time.Duration, rc *resource.Controller) *Cache {
	return &Cache{
		capacity:  capacity,
		ttl:       ttl,
		byID:      make(map[string]*list.Element),
		byKey:     make(map[Key]string),
		evictList: list.New(),
		rc:        rc,
	}
}

// Set stores tuples under key and returns the new handle. Any existing
// handle for the same key is replaced (its cursor becomes stale).
func (c *Cache) Set(key Key, tuples []spin.Tuple) *Handle {
	now := time.Now()
	h := &Handle{
		ID:        newHandleID(),
		Key:       key,
		Tuples:    tuples,
		CreatedAt: now,
	}
	if c.ttl > 0 {
		h.ExpiresAt = now.Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if oldID, ok := c.byKey[key]; ok {
		if el, ok := c.byID[oldID]; ok {
			c.removeElement(el)
		}
	}

	size := tupleBytes(tuples)
	if c.capacity > 0 && size > c.capacity {
		// Too large to ever fit; hand back an uncached handle so callers
		// can still page through it for this one response, but don't
		// pretend it's retrievable by ID later.
		delete(c.byKey, key)
		return h
	}

	for c.capacity > 0 && c.size+size > c.capacity {
		back := c.evictList.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}

	if c.rc != nil && !c.rc.TryAcquireMemory(size) {
		delete(c.byKey, key)
		return h
	}

	el := c.evictList.PushFront(&listEntry{handle: h, size: size})
	c.byID[h.ID] = el
	c.byKey[key] = h.ID
	c.size += size

	return h
}

// Lookup returns the cached handle for key, if present and unexpired.
func (c *Cache) Lookup(key Key) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.byKey[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	return c.getLocked(id)
}

// Get returns the handle for a cursor's handle ID, if present and
// unexpired.
func (c *Cache) Get(handleID string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(handleID)
}

func (c *Cache) getLocked(handleID string) (*Handle, bool) {
	el, ok := c.byID[handleID]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	ent := el.Value.(*listEntry)
	if ent.handle.Expired(time.Now()) {
		c.removeElement(el)
		c.misses.Add(1)
		return nil, false
	}
	c.evictList.MoveToFront(el)
	c.hits.Add(1)
	return ent.handle, true
}

// Slice implements the cursor-pagination contract of spec §4.6:
// (handle_id, offset) → (slice, has_more, expires_at). A miss (unknown
// or expired handle) is reported via ok=false so the caller knows to
// re-run the search rather than trusting a stale cursor.
func (c *Cache) Slice(handleID string, offset, limit int) (tuples []spin.Tuple, hasMore bool, expiresAt time.Time, ok bool) {
	h, found := c.Get(handleID)
	if !found {
		return nil, false, time.Time{}, false
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(h.Tuples) {
		return []spin.Tuple{}, false, h.ExpiresAt, true
	}
	end := len(h.Tuples)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return h.Tuples[offset:end], end < len(h.Tuples), h.ExpiresAt, true
}

// Invalidate drops every cached handle belonging to corpusID, e.g. when
// a Fabric backing that corpus is closed and its node IDs may no longer
// mean anything.
func (c *Cache) Invalidate(corpusID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*list.Element
	for id, el := range c.byID {
		if el.Value.(*listEntry).handle.Key.CorpusID == corpusID {
			stale = append(stale, c.byID[id])
		}
	}
	for _, el := range stale {
		c.removeElement(el)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	ent := el.Value.(*listEntry)
	c.evictList.Remove(el)
	delete(c.byID, ent.handle.ID)
	if cur, ok := c.byKey[ent.handle.Key]; ok && cur == ent.handle.ID {
		delete(c.byKey, ent.handle.Key)
	}
	c.size -= ent.size
	if c.rc != nil {
		c.rc.ReleaseMemory(ent.size)
	}
}

// Size returns the current total size of cached handles in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cumulative hit/miss counters across Get and Lookup.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// tupleBytes estimates a handle's memory footprint: one NodeID per atom
// binding plus per-tuple slice overhead, good enough for relative
// capacity accounting without walking reflect.
func tupleBytes(tuples []spin.Tuple) int64 {
	const nodeIDSize = 4
	const sliceOverhead = 24
	var total int64
	for _, tup := range tuples {
		total += sliceOverhead + int64(len(tup))*nodeIDSize
	}
	return total
}
