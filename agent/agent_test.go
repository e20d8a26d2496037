package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fitmate/database"
	apperrors "fitmate/errors"
	"fitmate/llmclient"
	"fitmate/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	threads  int
	requests []llmclient.AskRequest
	reply    string
	err      error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (f *fakeBackend) NewThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads++
	return fmt.Sprintf("thread_%d", f.threads), nil
}

func (f *fakeBackend) Ask(ctx context.Context, req llmclient.AskRequest) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type memoryLog struct {
	mu      sync.Mutex
	entries []database.ChatLog
	err     error
}

func (m *memoryLog) LogExchange(ctx context.Context, entry database.ChatLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLog) Recent(ctx context.Context, limit int) ([]database.ChatLog, error) {
	return nil, nil
}

func (m *memoryLog) Close() error { return nil }

func newTestAgent(t *testing.T, backend Backend, chatLog database.ChatLogger) *Agent {
	t.Helper()
	profiles := DefaultProfiles()
	for i := range profiles {
		profiles[i].AssistantID = "asst_" + profiles[i].Key
	}
	registry, err := NewRegistry(profiles...)
	require.NoError(t, err)
	store, err := NewConversationStore(16)
	require.NoError(t, err)
	return New(registry, backend, store, chatLog, nil).WithMetrics(metrics.NewExporter(metrics.DefaultConfig()))
}

func TestSendSupportFlattensReply(t *testing.T) {
	backend := &fakeBackend{reply: "We're open  24/7\n\nat every club【4:0†club_directory.txt】 "}
	chatLog := &memoryLog{}
	a := newTestAgent(t, backend, chatLog)

	reply, err := a.Send(context.Background(), Request{SessionID: "s1", AgentKey: KeySupport, Text: "  Opening hours?  "})
	require.NoError(t, err)

	assert.Equal(t, "support", reply.Agent)
	assert.Equal(t, "Opening hours?", reply.User.Content)
	assert.Equal(t, "We're open 24/7 at every club", reply.Assistant.Content)
	assert.NotEmpty(t, reply.User.ID)
	assert.NotEqual(t, reply.User.ID, reply.Assistant.ID)

	require.Len(t, backend.requests, 1)
	assert.Equal(t, "asst_support", backend.requests[0].AssistantID)
	assert.Equal(t, "thread_1", backend.requests[0].ThreadID)

	require.Len(t, chatLog.entries, 1)
	assert.Equal(t, "Opening hours?", chatLog.entries[0].UserInput)
	assert.Equal(t, "We're open 24/7 at every club", chatLog.entries[0].BotResponse)
	assert.Equal(t, "s1", chatLog.entries[0].SessionID)
}

func TestSendTrainingFormatsPlan(t *testing.T) {
	backend := &fakeBackend{reply: "Day 1 - Upper body\nExercise 1: Bench press, 3x8\nRest: 90s"}
	a := newTestAgent(t, backend, nil)

	reply, err := a.Send(context.Background(), Request{SessionID: "s1", AgentKey: KeyTraining, Goal: "build muscle", Text: "Give me a plan"})
	require.NoError(t, err)

	assert.Equal(t, "Goal: Build muscle\n\nGive me a plan", backend.requests[0].Text)
	assert.Equal(t, "Give me a plan", reply.User.Content)
	assert.Contains(t, reply.Assistant.Content, "1. **Day 1 — Upper body**")
	assert.Contains(t, reply.Assistant.Content, "  - Exercise 1: Bench press, 3x8")
	assert.Contains(t, reply.Assistant.Content, "**Tips for success:**")
}

func TestSendNutritionKeepsNewlines(t *testing.T) {
	backend := &fakeBackend{reply: "Breakfast:  oats\nLunch:\t\tchicken  salad"}
	a := newTestAgent(t, backend, nil)

	reply, err := a.Send(context.Background(), Request{SessionID: "s1", AgentKey: KeyNutrition, Text: "Meal ideas?"})
	require.NoError(t, err)
	assert.Equal(t, "Breakfast: oats\nLunch: chicken salad", reply.Assistant.Content)
}

func TestSendValidation(t *testing.T) {
	a := newTestAgent(t, &fakeBackend{reply: "ok"}, nil)

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"empty text", Request{SessionID: "s1", Text: "   "}, apperrors.ErrInvalidInput},
		{"no session", Request{Text: "hi"}, apperrors.ErrInvalidInput},
		{"unknown agent", Request{SessionID: "s1", AgentKey: "yoga", Text: "hi"}, apperrors.ErrNotFound},
		{"unknown goal", Request{SessionID: "s1", AgentKey: KeyTraining, Goal: "Fly", Text: "hi"}, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Send(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSendBackendFailureLeavesHistoryUntouched(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("run: %w", apperrors.ErrRunFailed)}
	chatLog := &memoryLog{}
	a := newTestAgent(t, backend, chatLog)

	_, err := a.Send(context.Background(), Request{SessionID: "s1", Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrRunFailed)
	assert.Empty(t, a.History("s1", KeySupport))
	assert.Empty(t, chatLog.entries)
}

func TestSendChatLogFailureIsNotFatal(t *testing.T) {
	a := newTestAgent(t, &fakeBackend{reply: "ok"}, &memoryLog{err: errors.New("disk full")})

	reply, err := a.Send(context.Background(), Request{SessionID: "s1", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Assistant.Content)
}

func TestSendReusesThreadPerAgent(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	a := newTestAgent(t, backend, nil)
	ctx := context.Background()

	for _, req := range []Request{
		{SessionID: "s1", AgentKey: KeySupport, Text: "one"},
		{SessionID: "s1", AgentKey: KeySupport, Text: "two"},
		{SessionID: "s1", AgentKey: KeyNutrition, Text: "three"},
		{SessionID: "s2", AgentKey: KeySupport, Text: "four"},
	} {
		_, err := a.Send(ctx, req)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, backend.threads)
	assert.Equal(t, backend.requests[0].ThreadID, backend.requests[1].ThreadID)
	assert.NotEqual(t, backend.requests[1].ThreadID, backend.requests[2].ThreadID)
	require.Len(t, backend.requests[1].History, 2)
	assert.Equal(t, RoleUser, backend.requests[1].History[0].Role)

	history := a.History("s1", KeySupport)
	require.Len(t, history, 4)
	assert.Equal(t, "two", history[2].Content)
}

func TestSendSerializesConversation(t *testing.T) {
	backend := &fakeBackend{reply: "ok", delay: 10 * time.Millisecond}
	a := newTestAgent(t, backend, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Send(context.Background(), Request{SessionID: "s1", Text: fmt.Sprintf("msg %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), backend.maxInFlight.Load())
	assert.Equal(t, 1, backend.threads)
	assert.Len(t, a.History("s1", KeySupport), 10)
}

func TestSendHonorsContextWhileWaiting(t *testing.T) {
	a := newTestAgent(t, &fakeBackend{reply: "ok"}, nil)
	conv := a.store.Acquire(ConversationKey{SessionID: "s1", Agent: KeySupport})
	require.NoError(t, conv.lock(context.Background()))
	defer conv.unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := a.Send(ctx, Request{SessionID: "s1", Text: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMessageLookup(t *testing.T) {
	a := newTestAgent(t, &fakeBackend{reply: "ok"}, nil)

	_, err := a.Message("s1", KeySupport, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	reply, err := a.Send(context.Background(), Request{SessionID: "s1", Text: "hi"})
	require.NoError(t, err)

	latest, err := a.Message("s1", KeySupport, "")
	require.NoError(t, err)
	assert.Equal(t, reply.Assistant.ID, latest.ID)

	user, err := a.Message("s1", KeySupport, reply.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", user.Content)

	_, err = a.Message("s1", KeySupport, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEndSession(t *testing.T) {
	a := newTestAgent(t, &fakeBackend{reply: "ok"}, nil)
	ctx := context.Background()

	_, err := a.Send(ctx, Request{SessionID: "s1", AgentKey: KeySupport, Text: "hi"})
	require.NoError(t, err)
	_, err = a.Send(ctx, Request{SessionID: "s1", AgentKey: KeyNutrition, Text: "hi"})
	require.NoError(t, err)
	_, err = a.Send(ctx, Request{SessionID: "s2", AgentKey: KeySupport, Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, 2, a.EndSession("s1"))
	assert.Empty(t, a.History("s1", KeySupport))
	assert.Len(t, a.History("s2", KeySupport), 2)
}
