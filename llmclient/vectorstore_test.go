package llmclient

import (
	"context"
	"testing"

	apperrors "fitmate/errors"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapFlow(t *testing.T) {
	api := &fakeAPI{batches: []openai.VectorStoreFileBatch{
		{ID: "batch_1", Status: BatchStatusInProgress},
		{ID: "batch_1", Status: BatchStatusCompleted, FileCounts: openai.VectorStoreFileCount{Completed: 2, Total: 2}},
	}}
	c := NewWithAPI(api, testConfig(), nil)
	ctx := context.Background()

	fileID, err := c.UploadFile(ctx, "data/club_directory.txt")
	require.NoError(t, err)
	assert.Equal(t, "file_club_directory.txt", fileID)

	vsID, err := c.CreateVectorStore(ctx, "AF-FAQ-Store", nil)
	require.NoError(t, err)

	batchID, err := c.AddFilesToVectorStore(ctx, vsID, []string{fileID, "file_faq"})
	require.NoError(t, err)

	counts, err := c.WaitForFileBatch(ctx, vsID, batchID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Completed)

	assistantID, err := c.CreateAssistant(ctx, AssistantSpec{
		Name:           "FitMate",
		Instructions:   "Answer club questions.",
		VectorStoreIDs: []string{vsID},
	})
	require.NoError(t, err)
	assert.Equal(t, "asst_1", assistantID)

	require.Len(t, api.assistants, 1)
	req := api.assistants[0]
	assert.Equal(t, "gpt-4o", req.Model)
	require.NotNil(t, req.ToolResources)
	assert.Equal(t, []string{"vs_1"}, req.ToolResources.FileSearch.VectorStoreIDs)
	assert.Equal(t, openai.AssistantToolTypeFileSearch, req.Tools[0].Type)
}

func TestWaitForFileBatchReportsFailures(t *testing.T) {
	api := &fakeAPI{batches: []openai.VectorStoreFileBatch{
		{ID: "batch_1", Status: BatchStatusCompleted, FileCounts: openai.VectorStoreFileCount{Completed: 1, Failed: 1, Total: 2}},
	}}
	c := NewWithAPI(api, testConfig(), nil)

	counts, err := c.WaitForFileBatch(context.Background(), "vs_1", "batch_1")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	assert.Equal(t, 1, counts.Failed)
}

func TestAddFilesRequiresFiles(t *testing.T) {
	c := NewWithAPI(&fakeAPI{}, testConfig(), nil)

	_, err := c.AddFilesToVectorStore(context.Background(), "vs_1", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAssistantSpecLeavesEmptyFieldsUnset(t *testing.T) {
	req := AssistantSpec{Instructions: "Be brief."}.request("gpt-4o")

	assert.Nil(t, req.Name)
	assert.Nil(t, req.ToolResources)
	require.NotNil(t, req.Instructions)
	assert.Equal(t, "Be brief.", *req.Instructions)
}
