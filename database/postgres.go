package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore writes chat logs to a Postgres table.
type PostgresStore struct {
	DB     *sql.DB
	table  string
	logger *zap.Logger
}

func NewPostgresStore(connStr, table string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, dbError("ping postgres", err)
	}
	logger.Info("Successfully connected to the database", zap.String("table", table))
	return &PostgresStore{DB: db, table: pq.QuoteIdentifier(table), logger: logger}, nil
}

// EnsureSchema creates the chat log table if it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id UUID PRIMARY KEY,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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

func (s *PostgresStore) LogExchange(ctx context.Context, entry ChatLog) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, created_at, session_id, agent, user_input, bot_response)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.table)
	_, err := s.DB.ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.SessionID, entry.Agent, entry.UserInput, entry.BotResponse)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			s.logger.Warn("Postgres rejected chat log insert",
				zap.String("code", pgErr.Code),
				zap.String("detail", pgErr.Detail))
		}
		return dbError("insert chat log", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]ChatLog, error) {
	query := fmt.Sprintf(`
		SELECT id, created_at, session_id, agent, user_input, bot_response
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, s.table)
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbError("query chat logs", err)
	}
	defer rows.Close()

	var logs []ChatLog
	for rows.Next() {
		var entry ChatLog
		if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.SessionID, &entry.Agent, &entry.UserInput, &entry.BotResponse); err != nil {
			return nil, dbError("scan chat log", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterate chat logs", err)
	}
	return logs, nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// indexName derives the created_at index name from an already quoted table
// name.
func indexName(quotedTable string) string {
	name := quotedTable
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	return "idx_" + name + "_created_at"
}
