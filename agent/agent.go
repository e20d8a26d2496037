package agent

import (
	"context"
	"strings"
	"time"

	"fitmate/database"
	apperrors "fitmate/errors"
	"fitmate/llmclient"
	"fitmate/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend talks to the hosted assistant.
type Backend interface {
	NewThread(ctx context.Context) (string, error)
	Ask(ctx context.Context, req llmclient.AskRequest) (string, error)
}

var (
	_ Backend = (*llmclient.AssistantBackend)(nil)
	_ Backend = (*llmclient.CompletionBackend)(nil)
)

// Request is a user message addressed to one agent.
type Request struct {
	SessionID string
	AgentKey  string
	Goal      string
	Text      string
}

// Reply carries both sides of a completed exchange.
type Reply struct {
	Agent     string  `json:"agent"`
	User      Message `json:"user"`
	Assistant Message `json:"assistant"`
}

type Agent struct {
	registry *Registry
	backend  Backend
	store    *ConversationStore
	chatLog  database.ChatLogger
	metrics  *metrics.Exporter
	logger   *zap.Logger
	now      func() time.Time
}

func New(registry *Registry, backend Backend, store *ConversationStore, chatLog database.ChatLogger, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chatLog == nil {
		chatLog = database.NopLogger{}
	}
	return &Agent{
		registry: registry,
		backend:  backend,
		store:    store,
		chatLog:  chatLog,
		logger:   logger,
		now:      time.Now,
	}
}

// WithMetrics attaches a metrics exporter; nil disables metrics.
func (a *Agent) WithMetrics(m *metrics.Exporter) *Agent {
	a.metrics = m
	return a
}

func (a *Agent) Registry() *Registry {
	return a.registry
}

// Send delivers a user message to the selected agent, waits for the reply and
// records the exchange. Requests to the same conversation are serialized.
func (a *Agent) Send(ctx context.Context, req Request) (Reply, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Reply{}, apperrors.WrapError(apperrors.ErrInvalidInput, "message is empty")
	}
	if req.SessionID == "" {
		return Reply{}, apperrors.WrapError(apperrors.ErrInvalidInput, "session ID is required")
	}

	profile, err := a.registry.Get(req.AgentKey)
	if err != nil {
		return Reply{}, err
	}
	goal, ok := profile.CanonicalGoal(req.Goal)
	if !ok {
		return Reply{}, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "agent %s has no goal %q", profile.Key, req.Goal)
	}

	key := ConversationKey{SessionID: req.SessionID, Agent: profile.Key}
	conv := a.store.Acquire(key)
	a.metrics.SetConversations(a.store.Len())

	if err := conv.lock(ctx); err != nil {
		return Reply{}, err
	}
	defer conv.unlock()

	start := a.now()
	logger := a.logger.With(
		zap.String("session_id", req.SessionID),
		zap.String("agent", profile.Key))

	reply, err := a.exchange(ctx, conv, profile, goal, text)
	a.metrics.RecordChat(profile.Key, a.now().Sub(start), err == nil)
	if err != nil {
		logger.Error("Chat exchange failed", zap.Error(err))
		return Reply{}, err
	}

	entry := database.ChatLog{
		ID:          uuid.NewString(),
		CreatedAt:   reply.Assistant.CreatedAt.UTC(),
		SessionID:   req.SessionID,
		Agent:       profile.Key,
		UserInput:   reply.User.Content,
		BotResponse: reply.Assistant.Content,
	}
	if err := a.chatLog.LogExchange(ctx, entry); err != nil {
		a.metrics.RecordChatLogError()
		logger.Warn("Failed to write chat log", zap.Error(err))
	}

	logger.Info("Chat exchange completed", zap.Duration("latency", a.now().Sub(start)))
	return reply, nil
}

func (a *Agent) exchange(ctx context.Context, conv *Conversation, profile Profile, goal, text string) (Reply, error) {
	threadID := conv.ThreadID()
	if threadID == "" {
		id, err := a.backend.NewThread(ctx)
		if err != nil {
			return Reply{}, err
		}
		conv.setThreadID(id)
		threadID = id
	}

	history := conv.Messages()
	turns := make([]llmclient.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, llmclient.Turn{Role: m.Role, Content: m.Content})
	}

	user := Message{ID: uuid.NewString(), Role: RoleUser, Content: text, CreatedAt: a.now()}
	raw, err := a.backend.Ask(ctx, llmclient.AskRequest{
		ThreadID:     threadID,
		AssistantID:  profile.AssistantID,
		Instructions: profile.Instructions,
		History:      turns,
		Text:         withGoal(goal, text),
	})
	if err != nil {
		return Reply{}, err
	}

	assistant := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   Pipeline(profile, raw),
		CreatedAt: a.now(),
	}
	conv.append(user, assistant)

	return Reply{Agent: profile.Key, User: user, Assistant: assistant}, nil
}

// History returns the messages exchanged with one agent, oldest first.
func (a *Agent) History(sessionID, agentKey string) []Message {
	profile, err := a.registry.Get(agentKey)
	if err != nil {
		return nil
	}
	conv, ok := a.store.Peek(ConversationKey{SessionID: sessionID, Agent: profile.Key})
	if !ok {
		return nil
	}
	return conv.Messages()
}

// Message looks up one message; an empty messageID selects the latest
// assistant reply.
func (a *Agent) Message(sessionID, agentKey, messageID string) (Message, error) {
	profile, err := a.registry.Get(agentKey)
	if err != nil {
		return Message{}, err
	}
	conv, ok := a.store.Peek(ConversationKey{SessionID: sessionID, Agent: profile.Key})
	if !ok {
		return Message{}, apperrors.WrapError(apperrors.ErrNotFound, "no conversation")
	}

	var msg Message
	if messageID == "" {
		msg, ok = conv.LastAssistant()
	} else {
		msg, ok = conv.Find(messageID)
	}
	if !ok {
		return Message{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "message %q", messageID)
	}
	return msg, nil
}

// Sweep drops idle conversations.
func (a *Agent) Sweep(maxIdle time.Duration) int {
	removed := a.store.Sweep(maxIdle)
	a.metrics.SetConversations(a.store.Len())
	return removed
}

// EndSession forgets every conversation of a session.
func (a *Agent) EndSession(sessionID string) int {
	removed := a.store.RemoveSession(sessionID)
	a.metrics.SetConversations(a.store.Len())
	return removed
}
