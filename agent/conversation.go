package agent

import (
	"context"
	"sync"
	"time"

	apperrors "fitmate/errors"

	lru "github.com/hashicorp/golang-lru"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one displayed chat message. Assistant content is already
// post-processed.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationKey identifies the conversation a session holds with one agent.
type ConversationKey struct {
	SessionID string
	Agent     string
}

func (k ConversationKey) String() string {
	return k.SessionID + "/" + k.Agent
}

// Conversation is the state of one (session, agent) pair.
type Conversation struct {
	Key ConversationKey

	// turn admits one in-flight request at a time.
	turn chan struct{}

	mu         sync.RWMutex
	threadID   string
	messages   []Message
	lastAccess time.Time
}

func newConversation(key ConversationKey, now time.Time) *Conversation {
	return &Conversation{
		Key:        key,
		turn:       make(chan struct{}, 1),
		lastAccess: now,
	}
}

// lock waits for the conversation to be free or ctx to end.
func (c *Conversation) lock(ctx context.Context) error {
	select {
	case c.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conversation) unlock() {
	<-c.turn
}

func (c *Conversation) ThreadID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threadID
}

func (c *Conversation) setThreadID(id string) {
	c.mu.Lock()
	c.threadID = id
	c.mu.Unlock()
}

// Messages returns a copy of the conversation history, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) append(msgs ...Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msgs...)
	c.mu.Unlock()
}

// Find returns the message with the given ID.
func (c *Conversation) Find(id string) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// LastAssistant returns the newest assistant message.
func (c *Conversation) LastAssistant() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

func (c *Conversation) touch(now time.Time) {
	c.mu.Lock()
	c.lastAccess = now
	c.mu.Unlock()
}

func (c *Conversation) idleSince() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAccess
}

// ConversationStore holds conversations in memory, bounded by an LRU so an
// unbounded number of sessions cannot exhaust memory.
type ConversationStore struct {
	mu    sync.Mutex
	cache *lru.Cache
	now   func() time.Time
}

func NewConversationStore(size int) (*ConversationStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "conversation store size %d", size)
	}
	return &ConversationStore{cache: cache, now: time.Now}, nil
}

// Acquire returns the conversation for key, creating it when absent, and
// marks it as recently used.
func (s *ConversationStore) Acquire(key ConversationKey) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if v, ok := s.cache.Get(key); ok {
		conv := v.(*Conversation)
		conv.touch(now)
		return conv
	}
	conv := newConversation(key, now)
	s.cache.Add(key, conv)
	return conv
}

// Peek returns the conversation for key without creating or touching it.
func (s *ConversationStore) Peek(key ConversationKey) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Peek(key)
	if !ok {
		return nil, false
	}
	return v.(*Conversation), true
}

// Sweep drops conversations idle for longer than maxIdle and returns how
// many were removed.
func (s *ConversationStore) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for _, k := range s.cache.Keys() {
		v, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		if v.(*Conversation).idleSince().Before(cutoff) {
			s.cache.Remove(k)
			removed++
		}
	}
	return removed
}

// RemoveSession drops every conversation belonging to sessionID.
func (s *ConversationStore) RemoveSession(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, k := range s.cache.Keys() {
		if k.(ConversationKey).SessionID == sessionID {
			s.cache.Remove(k)
			removed++
		}
	}
	return removed
}

func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
