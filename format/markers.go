package format

import (
	"regexp"
	"strings"
)

// Marker names - single source of truth for the workout plan vocabulary
const (
	MarkerDay         = "day"
	MarkerExercise    = "exercise"
	MarkerRest        = "rest"
	MarkerProgression = "progression"
	MarkerTips        = "tips"
)

// TipsHeading is the canonical heading emitted for the tips section.
const TipsHeading = "**Tips for success:**"

// TipBullet prefixes every line of the tips section.
const TipBullet = "• "

// DefaultTips are injected when a plan has no tips of its own.
var DefaultTips = []string{
	"Warm up 5–10 mins before lifting.",
	"Prioritise good form over load.",
	"Sleep 7–9 hrs and get enough protein 💪",
}

// Marker is a structural keyword in free-form workout text.
type Marker struct {
	Name string
	// Isolate matches the marker mid-line together with the horizontal
	// whitespace in front of it. The marker itself is capture group "m".
	Isolate *regexp.Regexp
	// LinePrefix is the lowercase prefix that classifies a whole line as this
	// marker; empty when the marker is classified by a dedicated parser.
	LinePrefix string
}

// Predefined markers, in isolation order
var (
	DayMarker = Marker{
		Name: MarkerDay,
		// The optional "N. **" prefix lets already-canonical headings through.
		Isolate: regexp.MustCompile(`(?i)(?P<canon>\d+\.[ \t]*\*\*)?[ \t]*\b(?P<m>day[ \t]+\d+[ \t]*[-–—])`),
	}

	ExerciseMarker = Marker{
		Name:       MarkerExercise,
		Isolate:    regexp.MustCompile(`(?i)[ \t]*\b(?P<m>exercise[ \t]+\d+:)`),
		LinePrefix: "exercise ",
	}

	RestMarker = Marker{
		Name:       MarkerRest,
		Isolate:    regexp.MustCompile(`(?i)[ \t]*\b(?P<m>rest:)`),
		LinePrefix: "rest:",
	}

	ProgressionMarker = Marker{
		Name:       MarkerProgression,
		Isolate:    regexp.MustCompile(`(?i)[ \t]*\b(?P<m>progression:)`),
		LinePrefix: "progression:",
	}

	TipsMarker = Marker{
		Name:       MarkerTips,
		Isolate:    regexp.MustCompile(`(?i)[ \t]*\b(?P<m>tips for success:)`),
		LinePrefix: "tips for success:",
	}

	// AllMarkers contains all markers for iteration
	AllMarkers = []Marker{DayMarker, ExerciseMarker, RestMarker, ProgressionMarker, TipsMarker}
)

// IsolateIn moves every occurrence of the marker onto a fresh line.
func (m Marker) IsolateIn(text string) string {
	canon := m.Isolate.SubexpIndex("canon")
	marker := m.Isolate.SubexpIndex("m")

	return m.Isolate.ReplaceAllStringFunc(text, func(match string) string {
		sub := m.Isolate.FindStringSubmatch(match)
		if canon > 0 && sub[canon] != "" {
			return match
		}
		return "\n" + sub[marker]
	})
}

// StartsLine reports whether a trimmed line opens with the marker.
func (m Marker) StartsLine(line string) bool {
	return m.LinePrefix != "" && strings.HasPrefix(strings.ToLower(line), m.LinePrefix)
}

// HasMarker reports whether text mentions the marker anywhere.
func HasMarker(text string, m Marker) bool {
	return m.Isolate.MatchString(text)
}
