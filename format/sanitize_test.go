package format

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		keepNewlines bool
		want         string
	}{
		{"empty", "", false, ""},
		{"whitespace only", " \t\n  ", false, ""},
		{"whitespace only keep newlines", " \n\n ", true, ""},
		{"plain text is trimmed", "  hello there  ", false, "hello there"},
		{"collapses mixed whitespace", "Line 1   \n   Line 2\t\tLine 3", false, "Line 1 Line 2 Line 3"},
		{"single newline survives a single-char run", "a\nb", false, "a\nb"},
		{"non-breaking hyphen", "non\u2011breaking", false, "non-breaking"},
		{"en dash", "dash\u2013test", false, "dash — test"},
		{"em dash", "dash\u2014test", false, "dash — test"},
		{"spaced dashes collapse", "non\u2011breaking \u2013 dash — test", false, "non-breaking — dash — test"},
		{"keep newlines collapses horizontal only", "Line 1   \n   Line 2", true, "Line 1 \n Line 2"},
		{"keep newlines normalizes crlf", "a\r\nb", true, "a\nb"},
		{"keep newlines preserves blank lines", "a\n\n\nb", true, "a\n\n\nb"},
		{"non-breaking space run", "a\u00a0\u00a0b", false, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input, tt.keepNewlines)
			if got != tt.want {
				t.Errorf("Sanitize(%q, %v) = %q, want %q", tt.input, tt.keepNewlines, got, tt.want)
			}
		})
	}
}

func TestSanitizeNeverLeavesWhitespaceRuns(t *testing.T) {
	inputs := []string{
		"a  b",
		"a \n\t b",
		"lots\u2014of\u2013dashes — here",
		"  \r\n mixed \u00a0 runs \v\f end ",
	}

	for _, input := range inputs {
		got := Sanitize(input, false)
		runes := []rune(got)
		for i := 1; i < len(runes); i++ {
			if isSpace(runes[i-1]) && isSpace(runes[i]) {
				t.Errorf("Sanitize(%q, false) = %q contains a whitespace run", input, got)
				break
			}
		}
	}
}

func TestSanitizeKeepsEveryNewline(t *testing.T) {
	input := "Day 1\u2014Push\n\nBench  press\t\t3x8\nRest: 90s"
	got := Sanitize(input, true)
	if strings.Count(got, "\n") != strings.Count(input, "\n") {
		t.Errorf("Sanitize(%q, true) = %q, newline count changed", input, got)
	}
	if strings.Contains(got, "  ") || strings.Contains(got, "\t\t") {
		t.Errorf("Sanitize(%q, true) = %q, horizontal run not collapsed", input, got)
	}
}

func isSpace(r rune) bool {
	return strings.ContainsRune(" \t\n\r\v\f\u00a0\u0085", r)
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no markup", "hello world", "hello world"},
		{"stars", "hello *world*", `hello \*world\*`},
		{"underscores", "some_under_scores", `some\_under\_scores`},
		{"leading star", "*bold", `\*bold`},
		{"double star", "**x**", `\*\*x\*\*`},
		{"already escaped", `already \*escaped\*`, `already \*escaped\*`},
		{"mixed", `a\*b*c`, `a\*b\*c`},
		{"unicode around", "💪 *go*", `💪 \*go\*`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeMarkdown(tt.input)
			if got != tt.want {
				t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeMarkdownIdempotent(t *testing.T) {
	input := "hello *world* and some_under_scores"
	once := EscapeMarkdown(input)
	if twice := EscapeMarkdown(once); twice != once {
		t.Errorf("EscapeMarkdown not idempotent: %q -> %q", once, twice)
	}
}

func TestStripCitations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"none", "Open 24/7.", "Open 24/7."},
		{"single", "Open 24/7.【4:0†faqs.txt】", "Open 24/7."},
		{"several", "Call us【1:2†clubs】 or visit【3:1†faq】 today", "Call us or visit today"},
		{"only citation", "【0:0†source】", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCitations(tt.input)
			if got != tt.want {
				t.Errorf("StripCitations(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
