package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

// Round is the state of one active question for one user. The timer goroutine
// and the answer path mutate it concurrently; every flag read or write happens
// under mu, and the terminal timeout transition re-validates cancellation inside
// the same critical section, so a cancelled timer can never flip a flag.
type Round struct {
	ID        string
	UserID    int64
	ChatID    int64
	Question  domain.Question
	Mode      domain.Mode
	StartedAt time.Time

	mu           sync.Mutex
	answered     bool
	correctGiven bool
	expired      bool
	expiredAt    time.Time
	inputBusy    bool
	hintSent     bool
	cancelTimer  context.CancelFunc
	timerDone    chan struct{}
}

func newRound(userID, chatID int64, q domain.Question, mode domain.Mode) *Round {
	return &Round{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		Question:  q,
		Mode:      mode,
		StartedAt: time.Now(),
	}
}

// Terminal reports whether the round has reached a terminal phase.
func (r *Round) Terminal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answered || r.expired
}

// Expired reports whether the countdown ran out before a terminal answer.
func (r *Round) Expired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expired
}

// cancelTimerLocked stops the countdown. Callers must hold mu. The context
// cancellation is the synchronous part: once it fires the timer makes no further
// state transitions, even though its goroutine may still be unwinding.
func (r *Round) cancelTimerLocked() {
	if r.cancelTimer != nil {
		r.cancelTimer()
		r.cancelTimer = nil
	}
}

// stop cancels the countdown from outside the answer path (round replacement,
// explicit stop).
func (r *Round) stop() {
	r.mu.Lock()
	r.cancelTimerLocked()
	r.mu.Unlock()
}

// settled reports whether the timer should quit without further messages:
// the round was decided, or an answer is being processed right now.
func (r *Round) settled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answered || r.correctGiven || r.inputBusy
}
