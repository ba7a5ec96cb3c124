package service

import (
	"regexp"
	"strings"
)

var (
	pageNumberLine = regexp.MustCompile(`^\d+$`)
	pageOfLine     = regexp.MustCompile(`(?i)^page \d+ of \d+$`)
	brokenHyphen   = regexp.MustCompile(`(\w+)-[ \t]*\n[ \t\n]*(\w+)`)
	spaceRuns      = regexp.MustCompile(`[ \t]+`)
	newlineRuns    = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// CleanText normalizes raw extracted text without altering sentence meaning.
// The passes run in a fixed order because later ones assume earlier
// normalization. The whole function is idempotent.
func CleanText(text string) string {
	// Drop running header/footer artifacts: standalone page numbers and
	// "Page N of M" lines.
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if pageNumberLine.MatchString(trimmed) || pageOfLine.MatchString(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")

	// Rejoin words hyphenated across line breaks: "exam-\nple" -> "example".
	text = brokenHyphen.ReplaceAllString(text, "$1$2")

	// Collapse runs of spaces and tabs.
	text = spaceRuns.ReplaceAllString(text, " ")

	// Three or more newlines become exactly two, keeping paragraph breaks.
	text = newlineRuns.ReplaceAllString(text, "\n\n")

	// Strip every line, then the whole text.
	lines = strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
