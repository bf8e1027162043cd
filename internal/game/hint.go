package game

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatHint derives a hint from the canonical answer without revealing it:
// word and letter counts for multi-word answers, length plus first letter for
// single words.
func FormatHint(answer string) string {
	clean := stripAsides(answer)
	if clean == "" {
		clean = strings.TrimSpace(answer)
	}
	if clean == "" {
		return "Подсказка недоступна."
	}

	words := strings.Fields(clean)
	if len(words) > 1 {
		letters := 0
		for _, w := range words {
			letters += utf8.RuneCountInString(w)
		}
		return fmt.Sprintf("Ответ содержит %d слов (%d букв)", len(words), letters)
	}

	word := []rune(words[0])
	if len(word) <= 3 {
		return fmt.Sprintf("Ответ - короткое слово из %d букв", len(word))
	}
	first := strings.ToUpper(string(word[0]))
	return fmt.Sprintf("Ответ - слово из %d букв, начинается на '%s'", len(word), first)
}

// stripAsides removes bracketed annotations and quotes but keeps punctuation,
// so the hint counts what the player is actually expected to type.
func stripAsides(answer string) string {
	clean := parenRe.ReplaceAllString(answer, "")
	clean = squareRe.ReplaceAllString(clean, "")
	clean = quoteRe.ReplaceAllString(clean, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(clean, " "))
}
