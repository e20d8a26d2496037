package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"fitmate/config"
	apperrors "fitmate/errors"
	"fitmate/metrics"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// API is the subset of the hosted service used by FitMate. *openai.Client
// satisfies it; tests substitute a fake.
type API interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	CreateFile(ctx context.Context, request openai.FileRequest) (openai.File, error)
	CreateVectorStore(ctx context.Context, request openai.VectorStoreRequest) (openai.VectorStore, error)
	RetrieveVectorStore(ctx context.Context, vectorStoreID string) (openai.VectorStore, error)
	CreateVectorStoreFileBatch(ctx context.Context, vectorStoreID string, request openai.VectorStoreFileBatchRequest) (openai.VectorStoreFileBatch, error)
	RetrieveVectorStoreFileBatch(ctx context.Context, vectorStoreID string, batchID string) (openai.VectorStoreFileBatch, error)
	CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error)
	ModifyAssistant(ctx context.Context, assistantID string, request openai.AssistantRequest) (openai.Assistant, error)
}

var _ API = (*openai.Client)(nil)

type Client struct {
	api     API
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Exporter
}

// New builds a client for the hosted service from cfg. It fails when no API
// key is configured.
func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.LLMRequestTimeout}

	return NewWithAPI(openai.NewClientWithConfig(oc), cfg, logger), nil
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API, cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, cfg: cfg, logger: logger}
}

// WithMetrics attaches a metrics exporter; nil disables metrics.
func (c *Client) WithMetrics(m *metrics.Exporter) *Client {
	c.metrics = m
	return c
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.cfg.Model
}

// withRetry runs fn until it succeeds, returns a non-retryable error or the
// attempt budget runs out. Failures are wrapped with ErrLLMCommunication.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := c.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(lastErr) || attempt == attempts-1 {
			break
		}

		c.logger.Warn("Hosted service call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
		if err := c.backoffSleep(ctx, attempt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrLLMCommunication, lastErr)
}

// retryable reports whether err is worth another attempt: rate limiting,
// server-side failures and transport errors.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) backoffSleep(ctx context.Context, attempt int) error {
	// Exponential backoff with configurable jitter and cap
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<attempt)
	maxWait := c.cfg.LLMBackoffMaxSeconds
	if maxWait > 0 && d > maxWait {
		d = maxWait
	}
	jitterRatio := c.cfg.LLMBackoffJitterRatio
	if jitterRatio < 0 || jitterRatio > 1 {
		jitterRatio = 0.1
	}
	jitter := time.Duration(float64(d) * jitterRatio)
	wait := d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
