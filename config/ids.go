package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "fitmate/errors"
)

// Well-known ID files written by bootstrap and read at startup.
const (
	VectorStoreIDFile = "vector_store_id.txt"
)

// AssistantIDFile names the file holding an agent's assistant ID.
func AssistantIDFile(agentKey string) string {
	return fmt.Sprintf("%s_assistant_id.txt", agentKey)
}

// ReadID returns the trimmed identifier stored in dir/name.
func ReadID(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.WrapErrorf(apperrors.ErrNotFound, "id file %s", name)
		}
		return "", fmt.Errorf("read id file %s: %w", name, err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", apperrors.WrapErrorf(apperrors.ErrNotFound, "id file %s is empty", name)
	}
	return id, nil
}

// WriteID persists id to dir/name, creating dir when needed.
func WriteID(dir, name, id string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ids directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.TrimSpace(id)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write id file %s: %w", name, err)
	}
	return nil
}
