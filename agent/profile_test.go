package agent

import (
	"os"
	"path/filepath"
	"testing"

	"fitmate/config"
	apperrors "fitmate/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfiles(t *testing.T) {
	registry, err := NewRegistry(DefaultProfiles()...)
	require.NoError(t, err)

	assert.Equal(t, KeySupport, registry.Default().Key)

	tests := []struct {
		key           string
		keepNewlines  bool
		formatWorkout bool
	}{
		{KeySupport, false, false},
		{KeyTraining, false, true},
		{KeyNutrition, true, false},
	}
	for _, tt := range tests {
		p, err := registry.Get(tt.key)
		require.NoError(t, err)
		if p.KeepNewlines != tt.keepNewlines || p.FormatWorkout != tt.formatWorkout {
			t.Errorf("%s: KeepNewlines=%v FormatWorkout=%v, want %v %v",
				tt.key, p.KeepNewlines, p.FormatWorkout, tt.keepNewlines, tt.formatWorkout)
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Profile{Key: "a"}, Profile{Key: "A"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = NewRegistry()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRegistryGet(t *testing.T) {
	registry, err := NewRegistry(DefaultProfiles()...)
	require.NoError(t, err)

	p, err := registry.Get("  Training ")
	require.NoError(t, err)
	assert.Equal(t, KeyTraining, p.Key)

	p, err = registry.Get("")
	require.NoError(t, err)
	assert.Equal(t, KeySupport, p.Key)

	_, err = registry.Get("yoga")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCanonicalGoal(t *testing.T) {
	p := Profile{Goals: []string{"Build muscle", "Lose fat"}}

	tests := []struct {
		goal   string
		want   string
		wantOK bool
	}{
		{"", "", true},
		{"build MUSCLE", "Build muscle", true},
		{" Lose fat ", "Lose fat", true},
		{"Run a marathon", "", false},
	}
	for _, tt := range tests {
		got, ok := p.CanonicalGoal(tt.goal)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CanonicalGoal(%q) = %q, %v, want %q, %v", tt.goal, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRegistryFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "af_assistant_id.txt"), []byte("asst_legacy\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "training_assistant_id.txt"), []byte("asst_train"), 0o644))

	keep := true
	cfg := &config.Config{
		IDsDir: dir,
		Agents: []config.AgentConfig{
			{Key: "nutrition", Label: "Dietitian", AssistantID: "asst_food"},
			{Key: "recovery", Label: "Recovery", Goals: []string{"Sleep better"}, KeepNewlines: &keep},
		},
	}

	registry, err := RegistryFromConfig(cfg, nil)
	require.NoError(t, err)

	list := registry.List()
	require.Len(t, list, 4)
	assert.Equal(t, "recovery", list[3].Key)
	assert.True(t, list[3].KeepNewlines)

	support, _ := registry.Get(KeySupport)
	assert.Equal(t, "asst_legacy", support.AssistantID)

	training, _ := registry.Get(KeyTraining)
	assert.Equal(t, "asst_train", training.AssistantID)
	assert.True(t, training.FormatWorkout)

	nutrition, _ := registry.Get(KeyNutrition)
	assert.Equal(t, "Dietitian", nutrition.Label)
	assert.Equal(t, "asst_food", nutrition.AssistantID)
	assert.True(t, nutrition.KeepNewlines, "override keeps unset fields")

	recovery, _ := registry.Get("recovery")
	assert.Empty(t, recovery.AssistantID)
}
