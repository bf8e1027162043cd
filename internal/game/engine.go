package game

import (
	"context"
	"log"
	"strings"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

// RoundStore holds the single active round per user (in-memory, Redis-backed, etc).
type RoundStore interface {
	Get(userID int64) (*Round, bool)
	Put(userID int64, r *Round)
	Delete(userID int64)
}

// ScoreLedger is the append-only correct-answer counter.
type ScoreLedger interface {
	Increment(ctx context.Context, userID int64, displayName string) error
	TopN(ctx context.Context, limit int) ([]domain.ScoreEntry, error)
}

// Button is an inline affordance attached to a notification.
type Button struct {
	Label string
	Data  string
}

// Notifier delivers game messages to the user's chat. Delivery is fire-and-forget
// from the engine's perspective: failures are logged, never escalated into round
// state.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string, buttons ...Button) error
	SendPhoto(ctx context.Context, chatID int64, url, caption string) error
}

// Answer is the result of one submission.
type Answer struct {
	Outcome domain.Outcome
	RoundID string
	Correct string
	Comment string
}

// Engine coordinates rounds: it installs fresh round state, spawns the countdown
// task, resolves the answer/timer race, and commits scoring exactly once.
type Engine struct {
	rounds RoundStore
	ledger ScoreLedger
	notify Notifier
	timing Timing
}

func NewEngine(rounds RoundStore, ledger ScoreLedger, notify Notifier, timing Timing) *Engine {
	return &Engine{rounds: rounds, ledger: ledger, notify: notify, timing: timing}
}

// StartRound installs a fresh round for the user and spawns its countdown.
// A still-running previous round is cancelled before replacement. A degenerate
// question is rejected and no round is created.
func (e *Engine) StartRound(ctx context.Context, userID, chatID int64, q domain.Question, mode domain.Mode) (*Round, error) {
	if !q.Valid() {
		return nil, domain.ErrNoQuestion
	}

	if prev, ok := e.rounds.Get(userID); ok {
		prev.stop()
	}

	r := newRound(userID, chatID, q, mode)
	timerCtx, cancel := context.WithCancel(context.Background())
	r.cancelTimer = cancel
	r.timerDone = make(chan struct{})
	e.rounds.Put(userID, r)

	go e.runTimer(timerCtx, r)
	return r, nil
}

// SubmitAnswer resolves one user message against the active round. The
// inputProcessing bracket spans the whole call so the countdown defers its
// expiry decision while an answer is in flight, and the timer is cancelled up
// front: a user message always pre-empts the countdown.
func (e *Engine) SubmitAnswer(ctx context.Context, userID int64, displayName, text string) Answer {
	r, ok := e.rounds.Get(userID)
	if !ok {
		return Answer{Outcome: domain.OutcomeNoActiveRound}
	}

	r.mu.Lock()
	if r.correctGiven {
		r.mu.Unlock()
		return Answer{Outcome: domain.OutcomeAlreadyAnswered, RoundID: r.ID}
	}
	r.inputBusy = true
	r.cancelTimerLocked()
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.inputBusy = false
		r.mu.Unlock()
	}()

	correct := IsCorrect(text, r.Question.Answer, r.Question.Comment)

	result := Answer{RoundID: r.ID, Correct: r.Question.Answer, Comment: r.Question.Comment}

	r.mu.Lock()
	expired := r.expired
	switch {
	case !expired && correct:
		r.answered = true
		r.correctGiven = true
		result.Outcome = domain.OutcomeCorrect
	case !expired && !correct:
		// Incorrect before the deadline: the user may retry.
		r.answered = false
		result.Outcome = domain.OutcomeIncorrect
	case expired && correct:
		r.correctGiven = true
		result.Outcome = domain.OutcomeLateCorrect
	default:
		result.Outcome = domain.OutcomeLateIncorrect
	}
	r.mu.Unlock()

	if result.Outcome == domain.OutcomeCorrect || result.Outcome == domain.OutcomeLateCorrect {
		if err := e.ledger.Increment(ctx, userID, displayName); err != nil {
			log.Printf("[engine] score increment for user %d failed: %v", userID, err)
		}
	}
	return result
}

// RevealAnswer returns the canonical answer and comment once the round is
// terminal. A round id from a stale button is rejected so a previous round's
// button cannot leak the current answer.
func (e *Engine) RevealAnswer(userID int64, roundID string) (answer, comment string, err error) {
	r, ok := e.rounds.Get(userID)
	if !ok {
		return "", "", domain.ErrNoActiveRound
	}
	if roundID != "" && roundID != r.ID {
		return "", "", domain.ErrNoActiveRound
	}
	if !r.Terminal() {
		return "", "", domain.ErrRoundActive
	}
	return r.Question.Answer, r.Question.Comment, nil
}

// StopRound cancels and drops the user's round, if any.
func (e *Engine) StopRound(userID int64) {
	if r, ok := e.rounds.Get(userID); ok {
		r.stop()
		e.rounds.Delete(userID)
	}
}

// Top returns the rating board.
func (e *Engine) Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	return e.ledger.TopN(ctx, limit)
}

func (e *Engine) send(ctx context.Context, chatID int64, text string, buttons ...Button) {
	if err := e.notify.SendText(ctx, chatID, text, buttons...); err != nil {
		log.Printf("[notify] send to chat %d failed: %v", chatID, err)
	}
}

// revealCallbackPrefix tags the callback payload of the timeout reveal button.
const revealCallbackPrefix = "reveal_answer:"

// RevealButton builds the "show answer" affordance for a timed-out round.
func RevealButton(roundID string) Button {
	return Button{Label: "👀 Показать ответ", Data: revealCallbackPrefix + roundID}
}

// ParseRevealCallback extracts the round id from a reveal button payload.
func ParseRevealCallback(data string) (string, bool) {
	if !strings.HasPrefix(data, revealCallbackPrefix) {
		return "", false
	}
	return strings.TrimPrefix(data, revealCallbackPrefix), true
}
