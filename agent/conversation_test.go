package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationStoreSweep(t *testing.T) {
	store, err := NewConversationStore(8)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Acquire(ConversationKey{SessionID: "old", Agent: KeySupport})
	now = now.Add(2 * time.Hour)
	store.Acquire(ConversationKey{SessionID: "fresh", Agent: KeySupport})

	assert.Equal(t, 1, store.Sweep(time.Hour))
	assert.Equal(t, 1, store.Len())

	_, ok := store.Peek(ConversationKey{SessionID: "old", Agent: KeySupport})
	assert.False(t, ok)
	_, ok = store.Peek(ConversationKey{SessionID: "fresh", Agent: KeySupport})
	assert.True(t, ok)
}

func TestConversationStoreAcquireTouches(t *testing.T) {
	store, err := NewConversationStore(8)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	key := ConversationKey{SessionID: "s1", Agent: KeyTraining}
	first := store.Acquire(key)
	now = now.Add(2 * time.Hour)
	second := store.Acquire(key)

	assert.Same(t, first, second)
	assert.Equal(t, 0, store.Sweep(time.Hour))
}

func TestConversationStoreIsBounded(t *testing.T) {
	store, err := NewConversationStore(2)
	require.NoError(t, err)

	store.Acquire(ConversationKey{SessionID: "a", Agent: KeySupport})
	store.Acquire(ConversationKey{SessionID: "b", Agent: KeySupport})
	store.Acquire(ConversationKey{SessionID: "c", Agent: KeySupport})

	assert.Equal(t, 2, store.Len())
	_, ok := store.Peek(ConversationKey{SessionID: "a", Agent: KeySupport})
	assert.False(t, ok, "least recently used conversation is evicted")
}

func TestNewConversationStoreRejectsBadSize(t *testing.T) {
	_, err := NewConversationStore(0)
	assert.Error(t, err)
}
