package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fitmate/agent"
	"fitmate/config"
	"fitmate/llmclient"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAdmin struct {
	mu        sync.Mutex
	uploads   []string
	failOn    string
	batches   [][]string
	created   []llmclient.AssistantSpec
	updated   map[string]llmclient.AssistantSpec
	storeName string
}

func (f *fakeAdmin) UploadFile(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filepath.Base(path) == f.failOn {
		return "", errors.New("upload rejected")
	}
	f.uploads = append(f.uploads, path)
	return "file_" + filepath.Base(path), nil
}

func (f *fakeAdmin) CreateVectorStore(_ context.Context, name string, _ []string) (string, error) {
	f.storeName = name
	return "vs_new", nil
}

func (f *fakeAdmin) AddFilesToVectorStore(_ context.Context, _ string, fileIDs []string) (string, error) {
	f.batches = append(f.batches, fileIDs)
	return "batch_1", nil
}

func (f *fakeAdmin) WaitForFileBatch(context.Context, string, string) (openai.VectorStoreFileCount, error) {
	n := len(f.batches[len(f.batches)-1])
	return openai.VectorStoreFileCount{Completed: n, Total: n}, nil
}

func (f *fakeAdmin) VectorStoreStatus(_ context.Context, id string) (llmclient.VectorStoreStatus, error) {
	return llmclient.VectorStoreStatus{ID: id}, nil
}

func (f *fakeAdmin) CreateAssistant(_ context.Context, spec llmclient.AssistantSpec) (string, error) {
	f.created = append(f.created, spec)
	return "asst_" + spec.Name, nil
}

func (f *fakeAdmin) UpdateAssistant(_ context.Context, id string, spec llmclient.AssistantSpec) error {
	if f.updated == nil {
		f.updated = make(map[string]llmclient.AssistantSpec)
	}
	f.updated[id] = spec
	return nil
}

func writeDocs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
	return dir
}

func TestUploadAllKeepsOrder(t *testing.T) {
	dir := writeDocs(t, "a.md", "b.md", "c.md")
	docs := []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md"), filepath.Join(dir, "c.md")}

	ids, err := uploadAll(context.Background(), &fakeAdmin{}, docs, 2, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"file_a.md", "file_b.md", "file_c.md"}, ids)
}

func TestUploadAllFailsOnAnyUpload(t *testing.T) {
	dir := writeDocs(t, "a.md", "b.md")
	docs := []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")}

	_, err := uploadAll(context.Background(), &fakeAdmin{failOn: "b.md"}, docs, 4, zap.NewNop())
	assert.ErrorContains(t, err, "b.md")
}

func TestBootstrap(t *testing.T) {
	docs := writeDocs(t, "hours.md", "billing.pdf")
	idsDir := filepath.Join(t.TempDir(), "ids")
	admin := &fakeAdmin{}

	profiles := agent.DefaultProfiles()
	profiles[2].AssistantID = "asst_existing"

	res, err := bootstrap(context.Background(), admin, bootstrapOptions{
		IDsDir:          idsDir,
		VectorStoreName: "FitMate knowledge",
		AssistantName:   "FitMate",
		Documents:       []string{docs},
		Concurrency:     2,
		Agents:          profiles,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "vs_new", res.VectorStoreID)
	assert.Equal(t, "FitMate knowledge", admin.storeName)
	assert.Equal(t, 2, res.Files.Completed)
	require.Len(t, admin.batches, 1)
	assert.Len(t, admin.batches[0], 2)

	require.Len(t, admin.created, 2)
	assert.Equal(t, "FitMate", admin.created[0].Name)
	assert.Equal(t, "FitMate (Personal trainer)", admin.created[1].Name)
	assert.Equal(t, []string{"vs_new"}, admin.created[1].VectorStoreIDs)
	assert.Equal(t, []string{"vs_new"}, admin.updated["asst_existing"].VectorStoreIDs)

	vsID, err := config.ReadID(idsDir, config.VectorStoreIDFile)
	require.NoError(t, err)
	assert.Equal(t, "vs_new", vsID)

	for key, want := range map[string]string{
		agent.KeySupport:   "asst_FitMate",
		agent.KeyTraining:  "asst_FitMate (Personal trainer)",
		agent.KeyNutrition: "asst_existing",
	} {
		got, err := config.ReadID(idsDir, config.AssistantIDFile(key))
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
		assert.Equal(t, want, res.Assistants[key])
	}
}

func TestBootstrapReusesVectorStore(t *testing.T) {
	docs := writeDocs(t, "hours.md")
	admin := &fakeAdmin{}

	res, err := bootstrap(context.Background(), admin, bootstrapOptions{
		IDsDir:        t.TempDir(),
		VectorStoreID: "vs_old",
		Documents:     []string{docs},
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "vs_old", res.VectorStoreID)
	assert.Empty(t, admin.storeName)
	assert.Empty(t, res.Assistants)
}

func TestSelectProfiles(t *testing.T) {
	registry, err := agent.NewRegistry(agent.DefaultProfiles()...)
	require.NoError(t, err)

	all, err := selectProfiles(registry, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := selectProfiles(registry, []string{"Training"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, agent.KeyTraining, some[0].Key)

	_, err = selectProfiles(registry, []string{"yoga"})
	assert.Error(t, err)
}
