// Package fdcache is a TTL- and capacity-bounded cache of open ZIP archive
// readers, built on jellydator/ttlcache/v3. Every entry is
// reference-counted: the cache itself holds one reference, and eviction
// (by TTL, capacity, or explicit Delete) only closes the archive once every
// caller-held reference has also been released.
package fdcache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/archvfs/archvfs/internal/logging"
	"github.com/archvfs/archvfs/internal/ziparchive"
)

// entry is a reference-counted *ziparchive.Reader.
type entry struct {
	reader   *ziparchive.Reader
	refCount atomic.Int32
}

func (e *entry) acquire() {
	e.refCount.Add(1)
}

func (e *entry) release(rbuf *logging.RingBuffer, path string) {
	if e.refCount.Add(-1) != 0 {
		return
	}

	if err := e.reader.Close(); err != nil && rbuf != nil {
		rbuf.Printf("fdcache: close %q: %v\n", path, err)
	}
}

// Cache is a TTL- and capacity-bounded cache of open ZIP archive readers,
// keyed by archive path.
type Cache struct {
	cache *ttlcache.Cache[string, *entry]
	rbuf  *logging.RingBuffer
}

// New returns a [Cache] holding at most capacity archives, each evicted
// ttl after its last access. rbuf, if non-nil, receives a line whenever an
// evicted archive's close fails.
func New(capacity int, ttl time.Duration, rbuf *logging.RingBuffer) *Cache {
	c := &Cache{rbuf: rbuf}
	c.cache = ttlcache.New[string, *entry](
		ttlcache.WithTTL[string, *entry](ttl),
		ttlcache.WithCapacity[string, *entry](uint64(capacity)),
	)

	c.cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *entry]) {
		item.Value().release(c.rbuf, item.Key())
	})

	go c.cache.Start()

	return c
}

// Acquire returns an open [ziparchive.Reader] for path, opening and
// caching it on a miss, and increments its reference count. The caller
// must call Release(path) exactly once when done with the reader.
func (c *Cache) Acquire(path string) (*ziparchive.Reader, error) {
	if item := c.cache.Get(path); item != nil {
		e := item.Value()
		e.acquire()

		return e.reader, nil
	}

	r, err := ziparchive.OpenReader(path)
	if err != nil {
		return nil, err
	}

	e := &entry{reader: r}
	e.acquire() // for the cache's own slot
	c.cache.Set(path, e, ttlcache.DefaultTTL)
	e.acquire() // for the caller

	return r, nil
}

// Release decrements path's reference count, closing the archive if this
// was the last reference and it has since been evicted from the cache.
func (c *Cache) Release(path string) {
	item := c.cache.Get(path)
	if item == nil {
		return
	}

	item.Value().release(c.rbuf, path)
}

// Len returns the number of archives currently cached.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Stop halts the cache's background expiration loop and closes every
// archive still held by the cache's own reference.
func (c *Cache) Stop() {
	c.cache.DeleteAll()
	c.cache.Stop()
}
