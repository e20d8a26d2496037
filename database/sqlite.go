package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore writes chat logs to a local SQLite file. Timestamps are stored
// as Unix nanoseconds.
type SQLiteStore struct {
	DB     *sql.DB
	table  string
	logger *zap.Logger
}

func NewSQLiteStore(path, table string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = filepath.Join("logs", "chat_log.db")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, dbError("open sqlite", err)
	}
	logger.Info("Opened SQLite chat log", zap.String("path", path))
	return &SQLiteStore{DB: db, table: pq.QuoteIdentifier(table), logger: logger}, nil
}

// EnsureSchema creates the chat log table if it does not already exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id TEXT PRIMARY KEY,
            created_at INTEGER NOT NULL,
            session_id TEXT NOT NULL DEFAULT '',
            agent TEXT NOT NULL DEFAULT '',
            user_input TEXT NOT NULL,
            bot_response TEXT NOT NULL
        )`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC)`,
			pq.QuoteIdentifier(indexName(s.table)), s.table),
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return dbError("execute schema statement", err)
		}
	}
	return nil
}

func (s *SQLiteStore) LogExchange(ctx context.Context, entry ChatLog) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, created_at, session_id, agent, user_input, bot_response)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.table)
	_, err := s.DB.ExecContext(ctx, query,
		entry.ID, entry.CreatedAt.UnixNano(), entry.SessionID, entry.Agent, entry.UserInput, entry.BotResponse)
	if err != nil {
		return dbError("insert chat log", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]ChatLog, error) {
	query := fmt.Sprintf(`
		SELECT id, created_at, session_id, agent, user_input, bot_response
		FROM %s
		ORDER BY created_at DESC
		LIMIT ?
	`, s.table)
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbError("query chat logs", err)
	}
	defer rows.Close()

	var logs []ChatLog
	for rows.Next() {
		var entry ChatLog
		var createdAt int64
		if err := rows.Scan(&entry.ID, &createdAt, &entry.SessionID, &entry.Agent, &entry.UserInput, &entry.BotResponse); err != nil {
			return nil, dbError("scan chat log", err)
		}
		entry.CreatedAt = time.Unix(0, createdAt).UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate chat logs", err)
	}
	return logs, nil
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}
