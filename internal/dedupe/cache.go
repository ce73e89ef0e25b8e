// ABOUTME: TTL cache for suppressing redelivered webhook updates.
// ABOUTME: Bot API retries until acked, so a crash mid-handling means replays.

package dedupe

import (
	"container/list"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Cache remembers recently seen update IDs for a bounded time and size.
// Insertion order is kept in a list so the oldest key can be evicted in
// O(1) when the cache is full.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache that forgets keys after ttl and never holds more than
// maxSize of them. A background goroutine sweeps expired entries; call Close
// to stop it.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// SeenUpdate reports whether the numeric update ID was already processed,
// marking it as seen when it was not. Check and mark are one atomic step.
func (c *Cache) SeenUpdate(updateID int64) bool {
	key := strconv.FormatInt(updateID, 10)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.seen[key]; ok {
		// A known key reuses its entry and list element whether or not it
		// is still live; pushing a second element would orphan the first
		// and make eviction remove the wrong key later.
		live := time.Since(e.seenAt) < c.ttl
		e.seenAt = time.Now()
		c.order.MoveToBack(e.element)
		return live
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.seen[key] = &entry{seenAt: time.Now(), element: elem}
	return false
}

// evictOldest must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, key)
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.seen {
		if now.Sub(e.seenAt) > c.ttl {
			c.order.Remove(e.element)
			delete(c.seen, key)
		}
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
