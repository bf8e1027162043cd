package game

import (
	"regexp"
	"strings"
)

var (
	parenRe  = regexp.MustCompile(`\([^()]*\)`)
	squareRe = regexp.MustCompile(`\[[^\[\]]*\]`)
	quoteRe  = regexp.MustCompile(`["«»„“”']`)
	punctRe  = regexp.MustCompile(`[.,;:!?]`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize maps raw answer text to its canonical comparable form: lowercase,
// bracketed asides removed, quotes and sentence punctuation stripped, whitespace
// collapsed. It is total and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = stripAll(text, parenRe)
	text = stripAll(text, squareRe)
	text = quoteRe.ReplaceAllString(text, "")
	text = punctRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// stripAll removes bracketed segments to a fixpoint, so nested asides like
// "((уточнение))" disappear entirely instead of leaving an empty pair behind.
func stripAll(text string, re *regexp.Regexp) string {
	for {
		stripped := re.ReplaceAllString(text, "")
		if stripped == text {
			return stripped
		}
		text = stripped
	}
}
