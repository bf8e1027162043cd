package game

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// keywordRatio is the share of the canonical answer's words that must appear in
// the user's answer for the keyword-overlap strategy to accept.
const keywordRatio = 0.7

// commentAssistMaxLen bounds (in runes) how long a normalized canonical answer may
// be for the comment-assisted strategy to apply.
const commentAssistMaxLen = 15

// acceptanceMarkers are phrases that signal the question's comment enumerates
// alternative answers the jury also accepted.
var acceptanceMarkers = []string{
	"также принимается", "засчитывать", "принимать",
	"зачет", "зачёт", "зачитывать", "эквивалент",
}

var ordinalSplitRe = regexp.MustCompile(`\d\.`)

// IsCorrect decides whether userText counts as the canonical answer. Strategies
// are tried in order and the first hit wins: duplex part-wise matching, exact
// normalized equality, containment either way, raw case-insensitive equality,
// keyword overlap, and comment-assisted acceptance of short alternatives.
// Empty inputs never match.
func IsCorrect(userText, correctText, comment string) bool {
	if strings.TrimSpace(userText) == "" || strings.TrimSpace(correctText) == "" {
		return false
	}

	if isDuplex(correctText) {
		if matched, decided := matchDuplex(userText, correctText); decided {
			return matched
		}
	}

	cleanUser := Normalize(userText)
	cleanCorrect := Normalize(correctText)

	if cleanUser != "" && cleanUser == cleanCorrect {
		return true
	}
	if cleanUser != "" && cleanCorrect != "" &&
		(strings.Contains(cleanCorrect, cleanUser) || strings.Contains(cleanUser, cleanCorrect)) {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(userText), strings.TrimSpace(correctText)) {
		return true
	}
	if matchKeywords(cleanUser, cleanCorrect) {
		return true
	}
	return matchByComment(cleanUser, cleanCorrect, comment)
}

// isDuplex reports whether the canonical answer has two ordinally marked parts.
func isDuplex(answer string) bool {
	return strings.Contains(answer, "1.") && strings.Contains(answer, "2.")
}

// matchDuplex compares a two-part answer part by part. It decides only when both
// texts carry ordinal markers and split into the same number of parts; otherwise
// the ordinary strategies run on the full strings.
func matchDuplex(userText, correctText string) (matched, decided bool) {
	if strings.EqualFold(userText, correctText) {
		return true, true
	}
	if !isDuplex(userText) {
		return false, false
	}
	correctParts := splitOrdinal(correctText)
	userParts := splitOrdinal(userText)
	if len(correctParts) == 0 || len(correctParts) != len(userParts) {
		return false, false
	}
	for i := range correctParts {
		cleanCorrect := Normalize(correctParts[i])
		cleanUser := Normalize(userParts[i])
		if cleanUser == cleanCorrect {
			continue
		}
		if cleanUser != "" && cleanCorrect != "" &&
			(strings.Contains(cleanCorrect, cleanUser) || strings.Contains(cleanUser, cleanCorrect)) {
			continue
		}
		return false, true
	}
	return true, true
}

func splitOrdinal(text string) []string {
	parts := ordinalSplitRe.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchKeywords accepts when enough of the canonical answer's words appear in the
// user's answer. Only multi-word answers qualify, and the ratio is measured
// against the canonical word set, so the strategy is deliberately asymmetric.
func matchKeywords(cleanUser, cleanCorrect string) bool {
	correctWords := wordSet(cleanCorrect)
	userWords := wordSet(cleanUser)
	if len(correctWords) <= 1 || len(userWords) == 0 {
		return false
	}
	common := 0
	for w := range userWords {
		if _, ok := correctWords[w]; ok {
			common++
		}
	}
	return float64(common)/float64(len(correctWords)) >= keywordRatio
}

// matchByComment accepts a short alternative answer when the question's comment
// quotes it and carries one of the "also accepted" marker phrases.
func matchByComment(cleanUser, cleanCorrect, comment string) bool {
	if cleanUser == "" || comment == "" {
		return false
	}
	if utf8.RuneCountInString(cleanCorrect) >= commentAssistMaxLen {
		return false
	}
	lowered := strings.ToLower(comment)
	if !strings.Contains(lowered, cleanUser) {
		return false
	}
	for _, marker := range acceptanceMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		set[w] = struct{}{}
	}
	return set
}
