package cli

import (
	"context"
	"fmt"

	"fitmate/agent"
	"fitmate/config"
	"fitmate/database"
	apperrors "fitmate/errors"
	"fitmate/llmclient"
	"fitmate/metrics"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// mustBind ties a flag to a config key; flags win over env and config file
// only when set.
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// loadConfig loads configuration and builds the logger at the configured
// level.
func loadConfig() (*config.Config, *zap.Logger, error) {
	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("re-initialize logger with configured level: %w", err)
	}
	return cfg, logger, nil
}

// app bundles everything a chat front end needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	agent   *agent.Agent
	metrics *metrics.Exporter
	chatLog database.ChatLogger
}

func (a *app) Close() {
	if err := a.chatLog.Close(); err != nil {
		a.logger.Warn("Failed to close chat log", zap.Error(err))
	}
	config.Cleanup()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := llmclient.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	exporter := metrics.NewExporter(metrics.DefaultConfig())
	client.WithMetrics(exporter)

	backend, err := newBackend(cfg, client)
	if err != nil {
		return nil, err
	}

	registry, err := agent.RegistryFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Backend == config.BackendAssistants {
		for _, p := range registry.List() {
			if p.AssistantID == "" {
				logger.Warn("Agent has no assistant yet; run `fitmate bootstrap`", zap.String("agent", p.Key))
			}
		}
	}

	store, err := agent.NewConversationStore(cfg.MaxConversations)
	if err != nil {
		return nil, err
	}

	chatLog, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open chat log: %w", err)
	}

	a := agent.New(registry, backend, store, chatLog, logger).WithMetrics(exporter)
	return &app{cfg: cfg, logger: logger, agent: a, metrics: exporter, chatLog: chatLog}, nil
}

func newBackend(cfg *config.Config, client *llmclient.Client) (agent.Backend, error) {
	switch cfg.Backend {
	case config.BackendAssistants, "":
		return llmclient.NewAssistantBackend(client), nil
	case config.BackendCompletions:
		return llmclient.NewCompletionBackend(client), nil
	default:
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "unknown ASSISTANT_BACKEND %q", cfg.Backend)
	}
}

// newAdminClient loads config and a client for the bootstrap tooling.
func newAdminClient() (*config.Config, *zap.Logger, *llmclient.Client, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := llmclient.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, client, nil
}
