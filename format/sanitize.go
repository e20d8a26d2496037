package format

import (
	"regexp"
	"strings"
)

var (
	// dashReplacer runs in a single pass, so the em-dash it emits is never rescanned.
	dashReplacer = strings.NewReplacer(
		"\u2011", "-",
		"\u2013", " \u2014 ",
		"\u2014", " \u2014 ",
	)

	// anyWhitespaceRun matches vertical tabs, NEL and the Unicode separator
	// classes as well as ASCII whitespace.
	anyWhitespaceRun        = regexp.MustCompile(`[\s\v\x{0085}\p{Z}]{2,}`)
	horizontalWhitespaceRun = regexp.MustCompile(`[ \t]{2,}`)

	citationMarker = regexp.MustCompile(`【[^】]*】`)
)

// Sanitize normalizes dash characters and collapses whitespace in assistant
// output. With keepNewlines set, line breaks survive and only horizontal
// whitespace runs are collapsed.
func Sanitize(text string, keepNewlines bool) string {
	if text == "" {
		return ""
	}

	text = dashReplacer.Replace(text)

	if keepNewlines {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = horizontalWhitespaceRun.ReplaceAllString(text, " ")
	} else {
		text = anyWhitespaceRun.ReplaceAllString(text, " ")
	}

	return strings.TrimSpace(text)
}

// EscapeMarkdown backslash-escapes every '*' and '_' that is not already
// escaped, so user input renders literally.
func EscapeMarkdown(text string) string {
	if !strings.ContainsAny(text, "*_") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 8)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c == '*' || c == '_') && (i == 0 || text[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// StripCitations removes the 【…】 source annotations the file-search tool
// appends to retrieved answers.
func StripCitations(text string) string {
	return strings.TrimSpace(citationMarker.ReplaceAllString(text, ""))
}
