package app

import (
	"regexp"
	"strings"
)

var multiNewline = regexp.MustCompile(`\n{3,}`)

// NormalizeBookText prepares raw book text for the paginated reader:
// literal \n escapes become newlines, runs of three or more newlines
// collapse to a paragraph break, and surrounding whitespace is trimmed.
func NormalizeBookText(raw string) string {
	text := strings.ReplaceAll(raw, `\n`, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
