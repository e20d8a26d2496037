package llmclient

import (
	"context"
	"strings"

	apperrors "fitmate/errors"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// Turn is one side of a conversation exchange.
type Turn struct {
	Role    string
	Content string
}

// AskRequest is a single user message addressed to an agent.
type AskRequest struct {
	ThreadID     string
	AssistantID  string
	Instructions string
	// History holds the earlier turns of the conversation, oldest first.
	// Backends that keep state remotely ignore it.
	History []Turn
	Text    string
}

// AssistantBackend answers through hosted assistant threads and runs; the
// conversation history lives remotely.
type AssistantBackend struct {
	client *Client
}

func NewAssistantBackend(client *Client) *AssistantBackend {
	return &AssistantBackend{client: client}
}

func (b *AssistantBackend) NewThread(ctx context.Context) (string, error) {
	return b.client.CreateThread(ctx)
}

func (b *AssistantBackend) Ask(ctx context.Context, req AskRequest) (string, error) {
	if strings.TrimSpace(req.AssistantID) == "" {
		return "", apperrors.WrapError(apperrors.ErrServiceUnavailable, "agent has no assistant ID; run bootstrap first")
	}

	if err := b.client.PostMessage(ctx, req.ThreadID, req.Text); err != nil {
		return "", err
	}
	runID, err := b.client.StartRun(ctx, req.ThreadID, req.AssistantID)
	if err != nil {
		return "", err
	}
	if _, err := b.client.WaitForRun(ctx, req.ThreadID, runID); err != nil {
		return "", err
	}
	return b.client.LatestReply(ctx, req.ThreadID, runID)
}

// CompletionBackend answers with plain chat completions, replaying the local
// history on every call.
type CompletionBackend struct {
	client *Client
}

func NewCompletionBackend(client *Client) *CompletionBackend {
	return &CompletionBackend{client: client}
}

// NewThread only mints a local identifier; nothing is created remotely.
func (b *CompletionBackend) NewThread(ctx context.Context) (string, error) {
	return "local-" + uuid.NewString(), nil
}

func (b *CompletionBackend) Ask(ctx context.Context, req AskRequest) (string, error) {
	return b.client.Complete(ctx, completionMessages(req))
}

func completionMessages(req AskRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.Instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Instructions,
		})
	}
	for _, turn := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Text,
	})
}
