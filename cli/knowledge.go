package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fitmate/agent"
	"fitmate/config"
	"fitmate/llmclient"
	"fitmate/utils"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// knowledgeAdmin is the slice of llmclient.Client used to manage the
// knowledge base and assistants.
type knowledgeAdmin interface {
	UploadFile(ctx context.Context, path string) (string, error)
	CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error)
	AddFilesToVectorStore(ctx context.Context, vectorStoreID string, fileIDs []string) (string, error)
	WaitForFileBatch(ctx context.Context, vectorStoreID, batchID string) (openai.VectorStoreFileCount, error)
	VectorStoreStatus(ctx context.Context, vectorStoreID string) (llmclient.VectorStoreStatus, error)
	CreateAssistant(ctx context.Context, spec llmclient.AssistantSpec) (string, error)
	UpdateAssistant(ctx context.Context, assistantID string, spec llmclient.AssistantSpec) error
}

var _ knowledgeAdmin = (*llmclient.Client)(nil)

// uploadAll uploads docs with at most limit uploads in flight. File IDs are
// returned in the order of docs.
func uploadAll(ctx context.Context, admin knowledgeAdmin, docs []string, limit int, logger *zap.Logger) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}

	ids := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			id, err := admin.UploadFile(gctx, doc)
			if err != nil {
				return fmt.Errorf("upload %s: %w", doc, err)
			}
			logger.Debug("Document uploaded", zap.String("path", doc), zap.String("file_id", id))
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// preflight warns about PDFs that file search will not be able to read.
func preflight(docs []string, logger *zap.Logger) {
	for _, doc := range docs {
		if !strings.EqualFold(filepath.Ext(doc), ".pdf") {
			continue
		}
		report, err := utils.InspectPDF(doc, logger)
		if err != nil {
			logger.Warn("Could not inspect PDF", zap.String("path", doc), zap.Error(err))
			continue
		}
		if !report.Searchable() {
			logger.Warn("PDF has no extractable text; file search cannot use it",
				zap.String("path", doc), zap.Int("pages", report.Pages))
		}
	}
}

// indexDocuments uploads docs and waits until vectorStoreID has indexed them.
func indexDocuments(ctx context.Context, admin knowledgeAdmin, vectorStoreID string, docs []string, limit int, logger *zap.Logger) (openai.VectorStoreFileCount, error) {
	fileIDs, err := uploadAll(ctx, admin, docs, limit, logger)
	if err != nil {
		return openai.VectorStoreFileCount{}, err
	}
	batchID, err := admin.AddFilesToVectorStore(ctx, vectorStoreID, fileIDs)
	if err != nil {
		return openai.VectorStoreFileCount{}, err
	}
	logger.Info("Indexing documents",
		zap.String("vector_store_id", vectorStoreID),
		zap.String("batch_id", batchID),
		zap.Int("files", len(fileIDs)))
	return admin.WaitForFileBatch(ctx, vectorStoreID, batchID)
}

type bootstrapOptions struct {
	IDsDir          string
	VectorStoreName string
	VectorStoreID   string
	AssistantName   string
	Documents       []string
	Concurrency     int
	Agents          []agent.Profile
	// Recreate forces new assistants even when an agent already has one.
	Recreate bool
}

type bootstrapResult struct {
	VectorStoreID string
	Files         openai.VectorStoreFileCount
	Assistants    map[string]string
}

// bootstrap builds the knowledge base and wires every agent's assistant to it.
// Agents that already have an assistant are updated in place.
func bootstrap(ctx context.Context, admin knowledgeAdmin, opts bootstrapOptions, logger *zap.Logger) (bootstrapResult, error) {
	docs, err := utils.CollectDocuments(opts.Documents)
	if err != nil {
		return bootstrapResult{}, err
	}
	preflight(docs, logger)

	res := bootstrapResult{VectorStoreID: opts.VectorStoreID, Assistants: make(map[string]string)}
	if res.VectorStoreID == "" {
		res.VectorStoreID, err = admin.CreateVectorStore(ctx, opts.VectorStoreName, nil)
		if err != nil {
			return res, err
		}
		logger.Info("Created vector store", zap.String("vector_store_id", res.VectorStoreID))
	}
	if err := config.WriteID(opts.IDsDir, config.VectorStoreIDFile, res.VectorStoreID); err != nil {
		return res, err
	}

	res.Files, err = indexDocuments(ctx, admin, res.VectorStoreID, docs, opts.Concurrency, logger)
	if err != nil {
		return res, err
	}

	for _, p := range opts.Agents {
		spec := llmclient.AssistantSpec{
			Name:           assistantName(opts.AssistantName, p),
			Instructions:   p.Instructions,
			VectorStoreIDs: []string{res.VectorStoreID},
		}

		id := p.AssistantID
		if id != "" && !opts.Recreate {
			if err := admin.UpdateAssistant(ctx, id, spec); err != nil {
				return res, fmt.Errorf("update %s assistant: %w", p.Key, err)
			}
		} else {
			id, err = admin.CreateAssistant(ctx, spec)
			if err != nil {
				return res, fmt.Errorf("create %s assistant: %w", p.Key, err)
			}
		}

		if err := config.WriteID(opts.IDsDir, config.AssistantIDFile(p.Key), id); err != nil {
			return res, err
		}
		res.Assistants[p.Key] = id
	}
	return res, nil
}

func assistantName(base string, p agent.Profile) string {
	if p.Key == agent.KeySupport || p.Label == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, p.Label)
}
