// ABOUTME: Tests for the conversation session store.
// ABOUTME: Validates truncation, ordering, TTL expiry, and concurrent update semantics.

package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptiva/storefront-gateway/internal/llm"
)

func TestStore_GetAbsent(t *testing.T) {
	s := New(30*time.Minute, 20)

	assert.Nil(t, s.Get("never-seen"))
}

func TestStore_UpdateThenGet(t *testing.T) {
	s := New(30*time.Minute, 20)

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "hi there"},
	}
	s.Update("chat-1", msgs)

	got := s.Get("chat-1")
	require.Len(t, got, 2)
	assert.Equal(t, msgs, got)
}

func TestStore_TruncatesToMaxTurns(t *testing.T) {
	s := New(30*time.Minute, 20)

	msgs := make([]llm.Message, 0, 25)
	for i := 0; i < 25; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}
	s.Update("chat-1", msgs)

	got := s.Get("chat-1")
	require.Len(t, got, 20)
	// Oldest turns dropped, order preserved.
	assert.Equal(t, "turn 5", got[0].Content)
	assert.Equal(t, "turn 24", got[19].Content)
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(30*time.Minute, 20, WithClock(func() time.Time { return current }))

	s.Update("chat-1", []llm.Message{{Role: llm.RoleUser, Content: "hello"}})

	// Just inside the TTL the session is still live.
	current = current.Add(30 * time.Minute)
	assert.Len(t, s.Get("chat-1"), 1)

	// Past the TTL the session reads as empty.
	current = current.Add(time.Minute)
	assert.Nil(t, s.Get("chat-1"))
}

func TestStore_ExpiredSessionIsRemoved(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(30*time.Minute, 20, WithClock(func() time.Time { return current }))

	s.Update("chat-1", []llm.Message{{Role: llm.RoleUser, Content: "hello"}})
	current = current.Add(31 * time.Minute)

	require.Nil(t, s.Get("chat-1"))
	assert.Equal(t, 0, s.Len())
}

func TestStore_UpdateRefreshesActivity(t *testing.T) {
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(30*time.Minute, 20, WithClock(func() time.Time { return current }))

	s.Update("chat-1", []llm.Message{{Role: llm.RoleUser, Content: "first"}})

	current = current.Add(20 * time.Minute)
	s.Update("chat-1", []llm.Message{{Role: llm.RoleUser, Content: "second"}})

	// 20 more minutes: past the original timestamp's TTL, within the refreshed one.
	current = current.Add(20 * time.Minute)
	got := s.Get("chat-1")
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Content)
}

func TestStore_StoredSliceIsNotAliased(t *testing.T) {
	s := New(30*time.Minute, 20)

	msgs := []llm.Message{{Role: llm.RoleUser, Content: "original"}}
	s.Update("chat-1", msgs)
	msgs[0].Content = "mutated"

	got := s.Get("chat-1")
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Content)
}

// Concurrent read-modify-write on the same key is intentionally not
// serialized: whichever Update lands last wins wholesale. This test pins
// that the store stays consistent (one of the two histories, never a blend).
func TestStore_ConcurrentUpdateLastWriterWins(t *testing.T) {
	s := New(30*time.Minute, 20)

	historyA := []llm.Message{
		{Role: llm.RoleUser, Content: "question A"},
		{Role: llm.RoleAssistant, Content: "answer A"},
	}
	historyB := []llm.Message{
		{Role: llm.RoleUser, Content: "question B"},
		{Role: llm.RoleAssistant, Content: "answer B"},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Update("chat-1", historyA)
	}()
	go func() {
		defer wg.Done()
		s.Update("chat-1", historyB)
	}()
	wg.Wait()

	got := s.Get("chat-1")
	require.Len(t, got, 2)
	if got[0].Content == "question A" {
		assert.Equal(t, "answer A", got[1].Content)
	} else {
		assert.Equal(t, "question B", got[0].Content)
		assert.Equal(t, "answer B", got[1].Content)
	}
}

func TestStore_ConcurrentAccessDistinctKeys(t *testing.T) {
	s := New(30*time.Minute, 20)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("chat-%d", n)
			s.Update(key, []llm.Message{{Role: llm.RoleUser, Content: key}})
			_ = s.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
