// ABOUTME: Thread-safe TTL store for per-conversation message history.
// ABOUTME: Expiry is lazy on Get; no background sweeper is needed for a single process.

package session

import (
	"sync"
	"time"

	"github.com/peptiva/storefront-gateway/internal/llm"
)

// entry holds the history and last-activity timestamp for one conversation key.
type entry struct {
	messages     []llm.Message
	lastActivity time.Time
}

// Store keeps per-conversation message history in memory. Sessions expire
// after the configured TTL of inactivity; expiry is checked lazily on Get
// rather than by a background sweep, so memory growth is bounded by the
// number of distinct active keys within one process lifetime.
//
// Get followed by Update is not serialized per key: two concurrent exchanges
// on the same conversation can interleave and the later Update wins. A single
// end user rarely sends two concurrent messages, so this is accepted rather
// than locked around.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects a time source, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a session store. Histories are truncated to the most recent
// maxTurns messages and expire after ttl of inactivity.
func New(ttl time.Duration, maxTurns int, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored history for key, oldest first. Absent or expired
// sessions return nil; an expired session is removed so the next Update
// starts fresh. Callers must not mutate the returned slice.
func (s *Store) Get(key string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key]
	if !ok {
		return nil
	}
	if s.now().Sub(e.lastActivity) > s.ttl {
		delete(s.sessions, key)
		return nil
	}
	return e.messages
}

// Update stores the history for key, keeping only the most recent maxTurns
// messages in order, and refreshes the activity timestamp.
func (s *Store) Update(key string, messages []llm.Message) {
	if len(messages) > s.maxTurns {
		messages = messages[len(messages)-s.maxTurns:]
	}
	// Copy so later appends by the caller cannot alias stored state.
	stored := make([]llm.Message, len(messages))
	copy(stored, messages)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = &entry{
		messages:     stored,
		lastActivity: s.now(),
	}
}

// Len returns the number of sessions currently held, including any that
// have expired but not yet been observed by Get.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
