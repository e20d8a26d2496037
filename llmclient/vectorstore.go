package llmclient

import (
	"context"
	"path/filepath"
	"time"

	apperrors "fitmate/errors"
	"fitmate/utils"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Vector store file batch statuses reported by the hosted service.
const (
	BatchStatusInProgress = "in_progress"
	BatchStatusCompleted  = "completed"
)

// UploadFile uploads a local document for use by assistants and returns the
// remote file ID.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	var file openai.File
	err := c.withRetry(ctx, "upload file", func() (err error) {
		file, err = c.api.CreateFile(ctx, openai.FileRequest{
			FileName: utils.SanitizeFilename(filepath.Base(path)),
			FilePath: path,
			Purpose:  string(openai.PurposeAssistants),
		})
		return err
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("Uploaded file", zap.String("path", path), zap.String("file_id", file.ID))
	return file.ID, nil
}

// CreateVectorStore creates a named vector store holding fileIDs.
func (c *Client) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	var store openai.VectorStore
	err := c.withRetry(ctx, "create vector store", func() (err error) {
		store, err = c.api.CreateVectorStore(ctx, openai.VectorStoreRequest{Name: name, FileIDs: fileIDs})
		return err
	})
	if err != nil {
		return "", err
	}
	return store.ID, nil
}

// AddFilesToVectorStore queues fileIDs for indexing and returns the batch ID.
func (c *Client) AddFilesToVectorStore(ctx context.Context, vectorStoreID string, fileIDs []string) (string, error) {
	if len(fileIDs) == 0 {
		return "", apperrors.WrapError(apperrors.ErrInvalidInput, "no files to add")
	}

	var batch openai.VectorStoreFileBatch
	err := c.withRetry(ctx, "create file batch", func() (err error) {
		batch, err = c.api.CreateVectorStoreFileBatch(ctx, vectorStoreID, openai.VectorStoreFileBatchRequest{FileIDs: fileIDs})
		return err
	})
	if err != nil {
		return "", err
	}
	return batch.ID, nil
}

// WaitForFileBatch polls a file batch until indexing finishes. Batches that
// finish with failed files are reported as ErrServiceUnavailable.
func (c *Client) WaitForFileBatch(ctx context.Context, vectorStoreID, batchID string) (openai.VectorStoreFileCount, error) {
	interval := c.cfg.RunPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var batch openai.VectorStoreFileBatch
		err := c.withRetry(ctx, "retrieve file batch", func() (err error) {
			batch, err = c.api.RetrieveVectorStoreFileBatch(ctx, vectorStoreID, batchID)
			return err
		})
		if err != nil {
			return openai.VectorStoreFileCount{}, err
		}

		if batch.Status != BatchStatusInProgress {
			if batch.Status != BatchStatusCompleted || batch.FileCounts.Failed > 0 {
				return batch.FileCounts, apperrors.WrapErrorf(apperrors.ErrServiceUnavailable,
					"file batch %s ended %s with %d failed files", batchID, batch.Status, batch.FileCounts.Failed)
			}
			return batch.FileCounts, nil
		}

		select {
		case <-ctx.Done():
			return batch.FileCounts, ctx.Err()
		case <-ticker.C:
		}
	}
}

// VectorStoreStatus describes a vector store's indexing progress.
type VectorStoreStatus struct {
	ID         string
	Name       string
	Status     string
	UsageBytes int
	Files      openai.VectorStoreFileCount
}

// VectorStoreStatus fetches the current state of a vector store.
func (c *Client) VectorStoreStatus(ctx context.Context, vectorStoreID string) (VectorStoreStatus, error) {
	var store openai.VectorStore
	err := c.withRetry(ctx, "retrieve vector store", func() (err error) {
		store, err = c.api.RetrieveVectorStore(ctx, vectorStoreID)
		return err
	})
	if err != nil {
		return VectorStoreStatus{}, err
	}
	return VectorStoreStatus{
		ID:         store.ID,
		Name:       store.Name,
		Status:     store.Status,
		UsageBytes: store.UsageBytes,
		Files:      store.FileCounts,
	}, nil
}

// AssistantSpec describes the assistant FitMate creates or updates. Empty
// fields are left untouched on update.
type AssistantSpec struct {
	Name           string
	Model          string
	Instructions   string
	VectorStoreIDs []string
}

func (s AssistantSpec) request(defaultModel string) openai.AssistantRequest {
	req := openai.AssistantRequest{Model: s.Model}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if s.Name != "" {
		name := s.Name
		req.Name = &name
	}
	if s.Instructions != "" {
		instructions := s.Instructions
		req.Instructions = &instructions
	}
	if len(s.VectorStoreIDs) > 0 {
		req.Tools = []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}}
		req.ToolResources = &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{VectorStoreIDs: s.VectorStoreIDs},
		}
	}
	return req
}

// CreateAssistant creates an assistant with file search over the given
// vector stores and returns its ID.
func (c *Client) CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	var assistant openai.Assistant
	err := c.withRetry(ctx, "create assistant", func() (err error) {
		assistant, err = c.api.CreateAssistant(ctx, spec.request(c.cfg.Model))
		return err
	})
	if err != nil {
		return "", err
	}
	c.logger.Info("Created assistant", zap.String("assistant_id", assistant.ID))
	return assistant.ID, nil
}

// UpdateAssistant modifies an existing assistant.
func (c *Client) UpdateAssistant(ctx context.Context, assistantID string, spec AssistantSpec) error {
	err := c.withRetry(ctx, "modify assistant", func() error {
		_, err := c.api.ModifyAssistant(ctx, assistantID, spec.request(c.cfg.Model))
		return err
	})
	if err != nil {
		return err
	}
	c.logger.Info("Updated assistant", zap.String("assistant_id", assistantID))
	return nil
}
