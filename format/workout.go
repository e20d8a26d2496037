package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// dayBulletSeparator is the " - " that belongs to a "Day N - focus"
	// heading. It is rewritten to an em-dash so bullet un-gluing leaves it alone.
	dayBulletSeparator = regexp.MustCompile(`(?i)\b(day[ \t]+\d+)[ \t]+-[ \t]+`)

	progressionThenTips = regexp.MustCompile(`(?i)[ \t]*(progression:[^\n]*?)[ \t]*(tips for success:)`)

	trailingDashStar  = regexp.MustCompile(`[-*]+$`)
	trailingNumbering = regexp.MustCompile(`\s+\d+\.$`)
	loneNumbering     = regexp.MustCompile(`^\d+\.$`)
	leadingBullet     = regexp.MustCompile(`^(?:[-*•][ \t]*)+`)

	// dayHeading accepts raw "Day 3: Legs" lines as well as canonical
	// "3. **Day 3 — Legs" lines whose closing asterisks were already trimmed.
	dayHeading = regexp.MustCompile(`(?i)^(?:\d+\.[ \t]*\*\*)?day[ \t]*(\d+)[ \t]*(?:[-–—:][ \t]*)?(.*)$`)
)

type workoutState int

const (
	stateNormal workoutState = iota
	stateInTips
)

// workoutMachine rebuilds a plan line by line. The only state it carries is
// whether it is inside the tips section.
type workoutMachine struct {
	state workoutState
	out   []string
}

func (m *workoutMachine) feed(raw string) {
	line := cleanWorkoutLine(raw)
	if line == "" || loneNumbering.MatchString(line) {
		return
	}

	if TipsMarker.StartsLine(line) {
		m.out = append(m.out, TipsHeading)
		m.state = stateInTips
		if rest := strings.TrimSpace(line[len(TipsMarker.LinePrefix):]); rest != "" {
			m.emitTip(rest)
		}
		return
	}

	switch m.state {
	case stateInTips:
		m.emitTip(line)
	default:
		m.out = append(m.out, normalLine(line))
	}
}

func (m *workoutMachine) emitTip(line string) {
	tip := strings.TrimSpace(leadingBullet.ReplaceAllString(line, ""))
	if tip == "" {
		return
	}
	m.out = append(m.out, TipBullet+tip)
}

func cleanWorkoutLine(raw string) string {
	line := strings.TrimSpace(raw)
	line = strings.TrimSpace(trailingDashStar.ReplaceAllString(line, ""))
	line = strings.TrimSpace(trailingNumbering.ReplaceAllString(line, ""))
	return line
}

func normalLine(line string) string {
	if heading, ok := dayLine(line); ok {
		return heading
	}

	if strings.HasPrefix(line, "- ") {
		return "  " + line
	}
	for _, m := range []Marker{ExerciseMarker, RestMarker, ProgressionMarker} {
		if m.StartsLine(line) {
			return "  - " + line
		}
	}
	return line
}

func dayLine(line string) (string, bool) {
	sub := dayHeading.FindStringSubmatch(line)
	if sub == nil {
		return "", false
	}

	day := sub[1]
	if n, err := strconv.Atoi(day); err == nil {
		day = strconv.Itoa(n)
	}

	focus := strings.TrimSpace(trailingDashStar.ReplaceAllString(strings.TrimSpace(sub[2]), ""))
	if focus == "" {
		return fmt.Sprintf("%s. **Day %s**", day, day), true
	}
	return fmt.Sprintf("%s. **Day %s — %s**", day, day, focus), true
}

// FormatWorkout rewrites a free-text training plan into canonical Markdown:
// numbered bold day headings, indented exercise/rest/progression bullets and a
// tips section that is never empty. Unrecognized lines pass through.
func FormatWorkout(text string) string {
	text = dayBulletSeparator.ReplaceAllString(text, "$1 — ")
	text = strings.ReplaceAll(text, " - ", "\n- ")
	text = progressionThenTips.ReplaceAllString(text, "\n$1\n$2")
	for _, m := range AllMarkers {
		text = m.IsolateIn(text)
	}

	machine := &workoutMachine{}
	for _, line := range strings.Split(text, "\n") {
		machine.feed(line)
	}

	return strings.Join(ensureTips(machine.out), "\n")
}

// ensureTips guarantees a tips heading followed by at least one tip.
func ensureTips(lines []string) []string {
	heading := -1
	for i, line := range lines {
		if line == TipsHeading {
			heading = i
			break
		}
	}

	if heading == -1 {
		lines = append(lines, TipsHeading)
		return append(lines, defaultTipLines()...)
	}

	tips := 0
	for _, line := range lines[heading+1:] {
		if !strings.HasPrefix(line, TipBullet) {
			break
		}
		tips++
	}
	if tips > 0 {
		return lines
	}

	out := make([]string, 0, len(lines)+len(DefaultTips))
	out = append(out, lines[:heading+1]...)
	out = append(out, defaultTipLines()...)
	return append(out, lines[heading+1:]...)
}

func defaultTipLines() []string {
	tips := make([]string, len(DefaultTips))
	for i, tip := range DefaultTips {
		tips[i] = TipBullet + tip
	}
	return tips
}
