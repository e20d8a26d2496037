package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CSVLog appends exchanges to a CSV file as
// timestamp, user input, bot response, session ID, agent.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

func NewCSVLog(path string) *CSVLog {
	if path == "" {
		path = filepath.Join("logs", "chat_log.csv")
	}
	return &CSVLog{path: path}
}

func (l *CSVLog) Path() string {
	return l.path
}

func (l *CSVLog) LogExchange(ctx context.Context, entry ChatLog) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open chat log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		entry.UserInput,
		entry.BotResponse,
		entry.SessionID,
		entry.Agent,
	}); err != nil {
		return fmt.Errorf("write chat log: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (l *CSVLog) Recent(ctx context.Context, limit int) ([]ChatLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open chat log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Rows written before session/agent columns existed have three fields.
	r.FieldsPerRecord = -1

	var all []ChatLog
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read chat log: %w", err)
		}
		if len(record) < 3 {
			continue
		}
		entry := ChatLog{UserInput: record[1], BotResponse: record[2]}
		if ts, err := time.Parse(time.RFC3339Nano, record[0]); err == nil {
			entry.CreatedAt = ts
		}
		if len(record) >= 5 {
			entry.SessionID = record[3]
			entry.Agent = record[4]
		}
		all = append(all, entry)
	}

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	recent := make([]ChatLog, 0, limit)
	for i := len(all) - 1; i >= len(all)-limit; i-- {
		recent = append(recent, all[i])
	}
	return recent, nil
}

func (l *CSVLog) Close() error {
	return nil
}
