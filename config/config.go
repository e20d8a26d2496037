package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "fitmate/errors"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	OpenAIAPIKey          string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL         string        `mapstructure:"OPENAI_BASE_URL"`
	Model                 string        `mapstructure:"OPENAI_MODEL"`
	Backend               string        `mapstructure:"ASSISTANT_BACKEND"`
	RunPollInterval       time.Duration `mapstructure:"RUN_POLL_INTERVAL_MS"`
	RunTimeout            time.Duration `mapstructure:"RUN_TIMEOUT"`
	LLMRequestTimeout     time.Duration `mapstructure:"LLM_REQUEST_TIMEOUT"`
	MaxRetries            int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds     time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`
	LLMBackoffMaxSeconds  time.Duration `mapstructure:"LLM_BACKOFF_MAX_SECONDS"`
	LLMBackoffJitterRatio float64       `mapstructure:"LLM_BACKOFF_JITTER_RATIO"`
	IDsDir                string        `mapstructure:"IDS_DIR"`
	VectorStoreName       string        `mapstructure:"VECTOR_STORE_NAME"`
	AssistantName         string        `mapstructure:"ASSISTANT_NAME"`
	DocumentPaths         []string      `mapstructure:"DOCUMENT_PATHS"`
	UploadConcurrency     int           `mapstructure:"UPLOAD_CONCURRENCY"`
	WebPort               int           `mapstructure:"WEB_PORT"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	LogDriver             string        `mapstructure:"LOG_DRIVER"`
	LogCSVPath            string        `mapstructure:"LOG_CSV_PATH"`
	LogDSN                string        `mapstructure:"LOG_DSN"`
	LogTable              string        `mapstructure:"LOG_TABLE"`
	MaxConversations      int           `mapstructure:"MAX_CONVERSATIONS"`
	CleanupEnabled        bool          `mapstructure:"CLEANUP_ENABLED"`
	CleanupInterval       time.Duration `mapstructure:"CLEANUP_INTERVAL"`
	ConversationIdleAge   time.Duration `mapstructure:"CONVERSATION_IDLE_AGE"`
	RateLimitPerMin       int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitBurstSize    int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	TypewriterDelay       time.Duration `mapstructure:"TYPEWRITER_DELAY_MS"`
	Agents                []AgentConfig `mapstructure:"AGENTS"`
}

// AgentConfig overrides or adds a conversational agent. Only set fields
// replace the built-in profile with the same key.
type AgentConfig struct {
	Key           string   `mapstructure:"key"`
	Label         string   `mapstructure:"label"`
	AssistantID   string   `mapstructure:"assistant_id"`
	Instructions  string   `mapstructure:"instructions"`
	Goals         []string `mapstructure:"goals"`
	KeepNewlines  *bool    `mapstructure:"keep_newlines"`
	FormatWorkout *bool    `mapstructure:"format_workout"`
	Greeting      string   `mapstructure:"greeting"`
}

func Load(logger *zap.Logger) *Config {
	var config Config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")        // For running locally
	viper.AddConfigPath("../")      // For running from docker subdir
	viper.AddConfigPath("./config") // Common config folder
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.normalize()
	return &config
}

func setDefaults() {
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o")
	viper.SetDefault("ASSISTANT_BACKEND", BackendAssistants)
	viper.SetDefault("RUN_POLL_INTERVAL_MS", 400)
	viper.SetDefault("RUN_TIMEOUT", 120)
	viper.SetDefault("LLM_REQUEST_TIMEOUT", 60)
	viper.SetDefault("MAX_RETRIES", 5)
	viper.SetDefault("RETRY_DELAY_SECONDS", 1)
	viper.SetDefault("LLM_BACKOFF_MAX_SECONDS", 20)
	viper.SetDefault("LLM_BACKOFF_JITTER_RATIO", 0.1)
	viper.SetDefault("IDS_DIR", "ids")
	viper.SetDefault("VECTOR_STORE_NAME", "AF-FAQ-Store")
	viper.SetDefault("ASSISTANT_NAME", "FitMate – Anytime Fitness Assistant")
	viper.SetDefault("DOCUMENT_PATHS", []string{"data/af_faqs.txt", "data/club_directory.txt"})
	viper.SetDefault("UPLOAD_CONCURRENCY", 4)
	viper.SetDefault("WEB_PORT", 8501)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DRIVER", LogDriverCSV)
	viper.SetDefault("LOG_CSV_PATH", "logs/chat_log.csv")
	viper.SetDefault("LOG_DSN", "")
	viper.SetDefault("LOG_TABLE", "chat_logs")
	viper.SetDefault("MAX_CONVERSATIONS", 1000)
	viper.SetDefault("CLEANUP_ENABLED", true)
	viper.SetDefault("CLEANUP_INTERVAL", 1)
	viper.SetDefault("CONVERSATION_IDLE_AGE", 24)
	viper.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	viper.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
	viper.SetDefault("TYPEWRITER_DELAY_MS", 10)
}

// Supported assistant backends
const (
	BackendAssistants  = "assistants"
	BackendCompletions = "completions"
)

// Supported chat log drivers
const (
	LogDriverCSV      = "csv"
	LogDriverSQLite   = "sqlite"
	LogDriverPostgres = "postgres"
	LogDriverNone     = "none"
)

func (c *Config) normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.LogDriver = strings.ToLower(strings.TrimSpace(c.LogDriver))
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)

	cleaned := make([]string, 0, len(c.DocumentPaths))
	for _, p := range c.DocumentPaths {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	c.DocumentPaths = cleaned

	if c.UploadConcurrency <= 0 {
		c.UploadConcurrency = 1
	}
	if c.MaxConversations <= 0 {
		c.MaxConversations = 1000
	}

	// Convert milliseconds/seconds/hours to proper time.Duration
	c.RunPollInterval = c.RunPollInterval * time.Millisecond
	c.TypewriterDelay = c.TypewriterDelay * time.Millisecond
	c.RunTimeout = c.RunTimeout * time.Second
	c.LLMRequestTimeout = c.LLMRequestTimeout * time.Second
	c.RetryDelaySeconds = c.RetryDelaySeconds * time.Second
	c.LLMBackoffMaxSeconds = c.LLMBackoffMaxSeconds * time.Second
	c.CleanupInterval = c.CleanupInterval * time.Hour
	c.ConversationIdleAge = c.ConversationIdleAge * time.Hour
}

// RequireAPIKey fails when commands that talk to the hosted service have no key.
func (c *Config) RequireAPIKey() error {
	if c.OpenAIAPIKey == "" {
		return apperrors.WrapError(apperrors.ErrMissingAPIKey,
			"add it to .env locally or export it in the deployment environment")
	}
	return nil
}
