package prompts

import (
	"strings"
	"testing"
)

func TestPromptsEmbedded(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"support", SupportSystem(), "file search"},
		{"training", TrainingSystem(), "Tips for success:"},
		{"nutrition", NutritionSystem(), "dietitian"},
		{"greeting", Greeting(), "FitMate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.got, tt.want) {
				t.Errorf("%s prompt does not mention %q", tt.name, tt.want)
			}
		})
	}
}
