// ABOUTME: Tests for the update deduplication cache
// ABOUTME: Covers first-seen semantics, capacity eviction, and concurrency

package dedupe

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_FirstSeenThenDuplicate(t *testing.T) {
	c := New(time.Minute, 100)
	defer c.Close()

	assert.False(t, c.SeenUpdate(42))
	assert.True(t, c.SeenUpdate(42))
	assert.False(t, c.SeenUpdate(43))
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := New(time.Minute, 2)
	defer c.Close()

	c.SeenUpdate(1)
	c.SeenUpdate(2)
	c.SeenUpdate(3) // evicts 1

	assert.False(t, c.SeenUpdate(1))
	assert.True(t, c.SeenUpdate(3))
}

func TestCache_DuplicateMovesToBack(t *testing.T) {
	c := New(time.Minute, 2)
	defer c.Close()

	c.SeenUpdate(1)
	c.SeenUpdate(2)
	c.SeenUpdate(1) // refreshes 1, so 2 is now oldest
	c.SeenUpdate(3) // evicts 2

	assert.True(t, c.SeenUpdate(1))
	assert.False(t, c.SeenUpdate(2))
}

func TestCache_ExpiredKeyReSeenKeepsOneSlot(t *testing.T) {
	c := New(50*time.Millisecond, 3)
	defer c.Close()

	assert.False(t, c.SeenUpdate(1))
	time.Sleep(60 * time.Millisecond)

	// Past the TTL the redelivery window has closed, so the ID counts as
	// new again and is re-marked.
	assert.False(t, c.SeenUpdate(1))
	assert.True(t, c.SeenUpdate(1))

	assert.Equal(t, 1, len(c.seen))
	assert.Equal(t, 1, c.order.Len())
}

func TestCache_ExpiredKeyReSeenSurvivesEviction(t *testing.T) {
	c := New(50*time.Millisecond, 3)
	defer c.Close()

	c.SeenUpdate(1)
	time.Sleep(60 * time.Millisecond)
	c.SeenUpdate(1) // re-marked after expiry
	c.SeenUpdate(2)
	c.SeenUpdate(1) // refreshed, so 2 is now the oldest
	c.SeenUpdate(3)
	c.SeenUpdate(4) // at capacity: evicts 2

	assert.True(t, c.SeenUpdate(1),
		"recently refreshed update forgotten: a redelivery would be dispatched twice")
	assert.False(t, c.SeenUpdate(2))
	assert.LessOrEqual(t, len(c.seen), 3)
}

func TestCache_ConcurrentMarking(t *testing.T) {
	c := New(time.Minute, 1000)
	defer c.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	firstSeen := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.SeenUpdate(7) {
				mu.Lock()
				firstSeen++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, firstSeen)
}

func TestCache_CloseTwice(t *testing.T) {
	c := New(time.Minute, 10)
	c.Close()
	c.Close()
}
