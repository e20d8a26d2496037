package agent

import (
	"strings"

	"fitmate/config"
	apperrors "fitmate/errors"
	"fitmate/prompts"

	"go.uber.org/zap"
)

// Built-in agent keys
const (
	KeySupport   = "support"
	KeyTraining  = "training"
	KeyNutrition = "nutrition"
)

// legacyAssistantIDFile is where the first single-agent deployment stored the
// support assistant's ID.
const legacyAssistantIDFile = "af_assistant_id.txt"

// Profile describes one conversational agent and how its replies are
// post-processed.
type Profile struct {
	Key          string   `json:"key"`
	Label        string   `json:"label"`
	AssistantID  string   `json:"-"`
	Instructions string   `json:"-"`
	Goals        []string `json:"goals"`
	// KeepNewlines preserves line structure when sanitizing replies.
	KeepNewlines bool `json:"keep_newlines"`
	// FormatWorkout pipes sanitized replies through the workout formatter.
	FormatWorkout bool   `json:"format_workout"`
	Greeting      string `json:"greeting"`
}

// CanonicalGoal returns the profile's spelling of goal. An empty goal is
// always accepted.
func (p Profile) CanonicalGoal(goal string) (string, bool) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", true
	}
	for _, g := range p.Goals {
		if strings.EqualFold(g, goal) {
			return g, true
		}
	}
	return "", false
}

// DefaultProfiles returns the built-in agents in display order.
func DefaultProfiles() []Profile {
	greeting := strings.TrimSpace(prompts.Greeting())
	return []Profile{
		{
			Key:          KeySupport,
			Label:        "Club support",
			Instructions: prompts.SupportSystem(),
			Greeting:     greeting,
		},
		{
			Key:           KeyTraining,
			Label:         "Personal trainer",
			Instructions:  prompts.TrainingSystem(),
			Goals:         []string{"Build muscle", "Lose fat", "Improve endurance", "General fitness"},
			FormatWorkout: true,
			Greeting:      "Tell me your goal and how many days a week you can train, and I'll build you a plan.",
		},
		{
			Key:          KeyNutrition,
			Label:        "Nutrition guide",
			Instructions: prompts.NutritionSystem(),
			Goals:        []string{"Lose weight", "Gain muscle", "Eat healthier"},
			KeepNewlines: true,
			Greeting:     "Ask me about meals, protein or healthy swaps.",
		},
	}
}

// Registry is an ordered set of agent profiles.
type Registry struct {
	order    []string
	profiles map[string]Profile
}

// NewRegistry builds a registry; the first profile is the default.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "at least one agent profile is required")
	}

	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		p.Key = strings.ToLower(strings.TrimSpace(p.Key))
		if p.Key == "" {
			return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "agent profile without key")
		}
		if _, dup := r.profiles[p.Key]; dup {
			return nil, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "duplicate agent %q", p.Key)
		}
		if p.Label == "" {
			p.Label = p.Key
		}
		r.order = append(r.order, p.Key)
		r.profiles[p.Key] = p
	}
	return r, nil
}

// RegistryFromConfig merges configured overrides into the built-in profiles
// and resolves assistant IDs from the ids directory when not configured.
func RegistryFromConfig(cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	profiles := DefaultProfiles()
	index := make(map[string]int, len(profiles))
	for i, p := range profiles {
		index[p.Key] = i
	}

	for _, ac := range cfg.Agents {
		key := strings.ToLower(strings.TrimSpace(ac.Key))
		if key == "" {
			return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "configured agent without key")
		}
		i, ok := index[key]
		if !ok {
			profiles = append(profiles, Profile{Key: key})
			i = len(profiles) - 1
			index[key] = i
		}
		profiles[i] = applyOverride(profiles[i], ac)
	}

	for i := range profiles {
		if profiles[i].AssistantID != "" {
			continue
		}
		id, err := config.ReadID(cfg.IDsDir, config.AssistantIDFile(profiles[i].Key))
		if err != nil && profiles[i].Key == KeySupport {
			id, err = config.ReadID(cfg.IDsDir, legacyAssistantIDFile)
		}
		if err != nil {
			logger.Debug("No assistant ID for agent", zap.String("agent", profiles[i].Key), zap.Error(err))
			continue
		}
		profiles[i].AssistantID = id
	}

	return NewRegistry(profiles...)
}

func applyOverride(p Profile, ac config.AgentConfig) Profile {
	p.Key = strings.ToLower(strings.TrimSpace(ac.Key))
	if ac.Label != "" {
		p.Label = ac.Label
	}
	if ac.AssistantID != "" {
		p.AssistantID = strings.TrimSpace(ac.AssistantID)
	}
	if ac.Instructions != "" {
		p.Instructions = ac.Instructions
	}
	if len(ac.Goals) > 0 {
		p.Goals = append([]string(nil), ac.Goals...)
	}
	if ac.KeepNewlines != nil {
		p.KeepNewlines = *ac.KeepNewlines
	}
	if ac.FormatWorkout != nil {
		p.FormatWorkout = *ac.FormatWorkout
	}
	if ac.Greeting != "" {
		p.Greeting = ac.Greeting
	}
	return p
}

// Get returns the profile for key; an empty key selects the default agent.
func (r *Registry) Get(key string) (Profile, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return r.Default(), nil
	}
	p, ok := r.profiles[key]
	if !ok {
		return Profile{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "agent %q", key)
	}
	return p, nil
}

// List returns every profile in registration order.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.profiles[key])
	}
	return out
}

func (r *Registry) Default() Profile {
	return r.profiles[r.order[0]]
}
