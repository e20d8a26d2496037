package database

import (
	"context"
	"fmt"
	"time"

	"fitmate/config"
	apperrors "fitmate/errors"

	"go.uber.org/zap"
)

// ChatLog is one user/assistant exchange.
type ChatLog struct {
	ID          string
	CreatedAt   time.Time
	SessionID   string
	Agent       string
	UserInput   string
	BotResponse string
}

// ChatLogger persists chat exchanges.
type ChatLogger interface {
	LogExchange(ctx context.Context, entry ChatLog) error
	// Recent returns up to limit exchanges, newest first.
	Recent(ctx context.Context, limit int) ([]ChatLog, error)
	Close() error
}

// Open returns the chat logger selected by cfg.LogDriver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ChatLogger, error) {
	switch cfg.LogDriver {
	case config.LogDriverCSV, "":
		return NewCSVLog(cfg.LogCSVPath), nil
	case config.LogDriverNone:
		return NopLogger{}, nil
	case config.LogDriverPostgres:
		store, err := NewPostgresStore(cfg.LogDSN, cfg.LogTable, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.LogDriverSQLite:
		store, err := NewSQLiteStore(cfg.LogDSN, cfg.LogTable, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "unknown LOG_DRIVER %q", cfg.LogDriver)
	}
}

// NopLogger discards every exchange.
type NopLogger struct{}

func (NopLogger) LogExchange(context.Context, ChatLog) error { return nil }

func (NopLogger) Recent(context.Context, int) ([]ChatLog, error) { return nil, nil }

func (NopLogger) Close() error { return nil }

func validateEntry(entry ChatLog) error {
	if entry.ID == "" {
		return apperrors.WrapError(apperrors.ErrInvalidInput, "chat log entry has no ID")
	}
	if entry.CreatedAt.IsZero() {
		return apperrors.WrapError(apperrors.ErrInvalidInput, "chat log entry has no timestamp")
	}
	return nil
}

func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrDatabaseOperation, err)
}
