package nutrition

import (
	"regexp"
	"strings"
)

var (
	noiseRe      = regexp.MustCompile(`[^a-zA-Z0-9\s.,%]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitize removes OCR glyph noise from text. Every character other than
// ASCII letters, digits, whitespace, '.', ',' and '%' is dropped, whitespace
// runs collapse to one space and the result is lower-cased.
func Sanitize(text string) string {
	text = noiseRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.ToLower(text)
}
