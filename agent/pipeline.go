package agent

import (
	"fmt"

	"fitmate/format"
)

// Pipeline turns a raw assistant reply into the text shown to the user and
// written to the chat log.
func Pipeline(p Profile, raw string) string {
	text := format.StripCitations(raw)
	text = format.Sanitize(text, p.KeepNewlines)
	if p.FormatWorkout {
		text = format.FormatWorkout(text)
	}
	return text
}

// withGoal prefixes the user's message with the selected goal.
func withGoal(goal, text string) string {
	if goal == "" {
		return text
	}
	return fmt.Sprintf("Goal: %s\n\n%s", goal, text)
}
