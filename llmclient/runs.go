package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "fitmate/errors"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// CreateThread opens an empty remote conversation thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread openai.Thread
	err := c.withRetry(ctx, "create thread", func() (err error) {
		thread, err = c.api.CreateThread(ctx, openai.ThreadRequest{})
		return err
	})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// PostMessage appends a user message to a thread.
func (c *Client) PostMessage(ctx context.Context, threadID, text string) error {
	return c.withRetry(ctx, "create message", func() error {
		_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		})
		return err
	})
}

// StartRun asks the assistant to process the thread and returns the run ID.
func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	var run openai.Run
	err := c.withRetry(ctx, "create run", func() (err error) {
		run, err = c.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
		return err
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// WaitForRun polls the run until it leaves the queued/in-progress states.
// A run that ends in any state but completed yields ErrRunFailed; a run still
// pending after RunTimeout yields ErrRunTimeout.
func (c *Client) WaitForRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	waitCtx := ctx
	if c.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.RunTimeout)
		defer cancel()
	}

	interval := c.cfg.RunPollInterval
	if interval <= 0 {
		interval = 400 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var run openai.Run
		err := c.withRetry(waitCtx, "retrieve run", func() (err error) {
			run, err = c.api.RetrieveRun(waitCtx, threadID, runID)
			return err
		})
		if err != nil {
			if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return run, apperrors.WrapErrorf(apperrors.ErrRunTimeout, "run %s", runID)
			}
			return run, err
		}

		c.metrics.RecordRunPoll(string(run.Status))

		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress:
		case openai.RunStatusCompleted:
			return run, nil
		default:
			reason := string(run.Status)
			if run.LastError != nil && run.LastError.Message != "" {
				reason = fmt.Sprintf("%s: %s", run.Status, run.LastError.Message)
			}
			c.logger.Warn("Assistant run did not complete",
				zap.String("thread_id", threadID),
				zap.String("run_id", runID),
				zap.String("status", string(run.Status)))
			return run, apperrors.WrapErrorf(apperrors.ErrRunFailed, "run %s ended with %s", runID, reason)
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			return run, apperrors.WrapErrorf(apperrors.ErrRunTimeout, "run %s still %s after %s", runID, run.Status, c.cfg.RunTimeout)
		case <-ticker.C:
		}
	}
}

// LatestReply returns the newest message the run added to the thread.
func (c *Client) LatestReply(ctx context.Context, threadID, runID string) (string, error) {
	limit := 1
	order := "desc"
	var runFilter *string
	if runID != "" {
		runFilter = &runID
	}

	var list openai.MessagesList
	err := c.withRetry(ctx, "list messages", func() (err error) {
		list, err = c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, runFilter)
		return err
	})
	if err != nil {
		return "", err
	}

	for _, msg := range list.Messages {
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		return messageText(msg), nil
	}
	return "", apperrors.WrapErrorf(apperrors.ErrNotFound, "no assistant reply in thread %s", threadID)
}

// messageText joins the text parts of a message.
func messageText(msg openai.Message) string {
	parts := make([]string, 0, len(msg.Content))
	for _, content := range msg.Content {
		if content.Text == nil {
			continue
		}
		parts = append(parts, content.Text.Value)
	}
	return strings.Join(parts, "\n")
}

// Complete runs a single chat completion over messages.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, "chat completion", func() (err error) {
		resp, err = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    c.cfg.Model,
			Messages: messages,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.WrapError(apperrors.ErrLLMCommunication, "no response choices from hosted service")
	}
	return resp.Choices[0].Message.Content, nil
}
