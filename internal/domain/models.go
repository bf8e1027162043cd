package domain

import (
	"fmt"
	"strings"
)

// Mode selects the countdown duration and hint policy for a round.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeSpeed   Mode = "speed"
	ModeNoHints Mode = "no_hints"
)

// ParseMode maps a raw mode name to a Mode, defaulting to normal.
func ParseMode(raw string) Mode {
	switch Mode(raw) {
	case ModeSpeed:
		return ModeSpeed
	case ModeNoHints:
		return ModeNoHints
	default:
		return ModeNormal
	}
}

// Title returns the user-facing mode name.
func (m Mode) Title() string {
	switch m {
	case ModeSpeed:
		return "На скорость"
	case ModeNoHints:
		return "Без подсказок"
	default:
		return "Обычный режим"
	}
}

// Question is one trivia question as served by the question provider.
type Question struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Answer     string   `json:"answer"`
	Comment    string   `json:"comment"`
	ImageURLs  []string `json:"imageUrls,omitempty"`
	Tournament string   `json:"tournament,omitempty"`
	Tour       string   `json:"tour,omitempty"`
	Authors    string   `json:"authors,omitempty"`
	Source     string   `json:"source,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Type       string   `json:"type,omitempty"`
	PlayedAt   string   `json:"playedAt,omitempty"`
	TeamsTotal int      `json:"teamsTotal,omitempty"`
	TeamsRight int      `json:"teamsRight,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// Valid reports whether the record is complete enough to start a round with.
func (q Question) Valid() bool {
	return strings.TrimSpace(q.Text) != "" && strings.TrimSpace(q.Answer) != ""
}

// MetadataText formats the tournament/author/source block shown under the question.
func (q Question) MetadataText() string {
	var lines []string
	if q.Tournament != "" {
		lines = append(lines, "🏆 Турнир: "+q.Tournament)
	}
	if q.Tour != "" {
		lines = append(lines, "📋 Тур: "+q.Tour)
	}
	if q.Authors != "" {
		lines = append(lines, "✍️ Автор: "+q.Authors)
	}
	if q.PlayedAt != "" {
		lines = append(lines, "📅 Дата: "+q.PlayedAt)
	}
	if q.Source != "" {
		lines = append(lines, "📚 Источник: "+q.Source)
	}
	if q.Difficulty != "" {
		lines = append(lines, "🔥 Сложность: "+q.Difficulty)
	}
	if q.Type != "" {
		lines = append(lines, "📝 Тип: "+q.Type)
	}
	if q.TeamsTotal > 0 {
		pct := q.TeamsRight * 100 / q.TeamsTotal
		lines = append(lines, fmt.Sprintf("📊 Статистика: %d из %d команд (%d%%)", q.TeamsRight, q.TeamsTotal, pct))
	}
	return strings.Join(lines, "\n")
}

// Outcome is the terminal classification of one answer submission.
type Outcome int

const (
	OutcomeNoActiveRound Outcome = iota
	OutcomeAlreadyAnswered
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeLateCorrect
	OutcomeLateIncorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoActiveRound:
		return "no_active_round"
	case OutcomeAlreadyAnswered:
		return "already_answered"
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeLateCorrect:
		return "late_correct"
	case OutcomeLateIncorrect:
		return "late_incorrect"
	}
	return "unknown"
}

// ScoreEntry is one row of the rating board.
type ScoreEntry struct {
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}
