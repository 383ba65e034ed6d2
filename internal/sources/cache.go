package sources

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SnapshotLoader produces a fresh Snapshot. *Loader implements it.
type SnapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Cache memoizes the last successful Snapshot for one set of sources. Concurrent misses
// share a single load. Failed loads are not remembered. Entries never expire; only
// Invalidate drops them.
type Cache struct {
	loader SnapshotLoader
	key    string

	mu   sync.Mutex
	snap *Snapshot
	gen  uint64

	group singleflight.Group
}

// NewCache creates a Cache keyed by key (normally config.Sources.Key()).
func NewCache(loader SnapshotLoader, key string) *Cache {
	return &Cache{loader: loader, key: key}
}

// Get returns the memoized Snapshot, loading it on a miss.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if s, ok := c.Cached(); ok {
		return s, nil
	}

	ch := c.group.DoChan(c.key, func() (interface{}, error) {
		c.mu.Lock()
		if c.snap != nil {
			s := c.snap
			c.mu.Unlock()
			return s, nil
		}
		gen := c.gen
		c.mu.Unlock()

		// Shared by every waiter, so one caller going away must not abort it.
		s, err := c.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.snap = s
		}
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Cached returns the memoized Snapshot without loading.
func (c *Cache) Cached() (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.snap != nil
}

// Invalidate drops the memoized Snapshot. A load already in flight finishes for its
// waiters but is not stored.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.gen++
	c.mu.Unlock()
	c.group.Forget(c.key)
}
