package game

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

// ModeTiming is the countdown configuration of one game mode.
type ModeTiming struct {
	Total    time.Duration
	ShowHint bool
}

// Timing collects every knob of the countdown task. Production values mirror the
// game rules; tests shrink them to milliseconds.
type Timing struct {
	// Tick is the countdown accounting granularity.
	Tick time.Duration
	// ReadPoll is how often the reading phase rechecks the round flags.
	ReadPoll time.Duration
	// Grace bounds the deferred rechecks before a timeout is declared.
	Grace time.Duration
	// HintFraction is the elapsed share of Total at which the hint fires.
	HintFraction float64
	// Hints globally enables hint delivery for modes that allow it.
	Hints bool
	// Modes maps each mode to its countdown configuration.
	Modes map[domain.Mode]ModeTiming
	// Reading overrides the reading-time formula; nil selects ReadingTime.
	Reading func(q domain.Question) time.Duration
}

// DefaultTiming returns the production countdown configuration.
func DefaultTiming(hints bool) Timing {
	return Timing{
		Tick:         time.Second,
		ReadPoll:     500 * time.Millisecond,
		Grace:        2 * time.Second,
		HintFraction: 0.5,
		Hints:        hints,
		Modes: map[domain.Mode]ModeTiming{
			domain.ModeNormal:  {Total: 60 * time.Second, ShowHint: true},
			domain.ModeSpeed:   {Total: 30 * time.Second},
			domain.ModeNoHints: {Total: 50 * time.Second},
		},
	}
}

func (t Timing) mode(m domain.Mode) ModeTiming {
	if mt, ok := t.Modes[m]; ok {
		return mt
	}
	return t.Modes[domain.ModeNormal]
}

// ReadingTime sizes the pre-countdown reading pause from question length and
// image count: five seconds per ~15 words, clamped to 5..20s, plus five seconds
// per image.
func ReadingTime(q domain.Question) time.Duration {
	words := len(strings.Fields(q.Text))
	secs := (words / 15) * 5
	if secs < 5 {
		secs = 5
	}
	if secs > 20 {
		secs = 20
	}
	secs += 5 * len(q.ImageURLs)
	return time.Duration(secs) * time.Second
}

// runTimer owns one round's countdown: reading pause, ticking with a mid-way
// hint, the grace sequence, and the single timeout declaration. Cancellation at
// any point is a clean exit with no flag transitions. Notification failures are
// logged and swallowed; the round-state transitions stay authoritative.
func (e *Engine) runTimer(ctx context.Context, r *Round) {
	defer close(r.timerDone)

	mt := e.timing.mode(r.Mode)
	reading := e.readingTime(r.Question)

	if r.settled() {
		log.Printf("[timer] user %d already answered, skipping countdown", r.UserID)
		return
	}

	if reading > 5*time.Second {
		e.send(ctx, r.ChatID, fmt.Sprintf("⏳ У вас есть %d секунд на чтение вопроса.", int(reading.Seconds())))
	}
	if !e.waitReading(ctx, r, reading) {
		return
	}

	e.send(ctx, r.ChatID, fmt.Sprintf("⏱️ Отсчет времени начался! (%d секунд)", int(mt.Total.Seconds())))

	if !e.countdown(ctx, r, mt) {
		return
	}

	if !e.graceWait(ctx, r) {
		return
	}

	// Terminal transition. Re-validate everything inside one critical section:
	// a cancellation or answer that won the race means no transition at all.
	r.mu.Lock()
	if ctx.Err() != nil || r.answered || r.correctGiven {
		r.mu.Unlock()
		return
	}
	r.expired = true
	r.expiredAt = time.Now()
	r.answered = true
	roundID := r.ID
	r.mu.Unlock()

	log.Printf("[timer] time's up for user %d (round %s)", r.UserID, roundID)
	// The transition above is authoritative; the notification goes out on a
	// fresh context so a racing cancellation cannot suppress it.
	e.send(context.Background(), r.ChatID, "⏰ Время вышло!", RevealButton(roundID))
}

// waitReading sleeps through the reading pause while polling the round flags at
// sub-second granularity. Any positive flag ends the timer with no messages.
func (e *Engine) waitReading(ctx context.Context, r *Round, reading time.Duration) bool {
	deadline := time.Now().Add(reading)
	for time.Now().Before(deadline) {
		if !sleepCtx(ctx, e.timing.ReadPoll) {
			return false
		}
		if r.settled() {
			return false
		}
	}
	return true
}

// countdown advances the elapsed-time accounting one tick at a time. Ticks
// observed while an answer is in flight do not count, which stretches the
// effective duration instead of racing the user.
func (e *Engine) countdown(ctx context.Context, r *Round, mt ModeTiming) bool {
	hintAt := time.Duration(float64(mt.Total) * e.timing.HintFraction)
	var elapsed time.Duration
	for elapsed < mt.Total {
		if !sleepCtx(ctx, e.timing.Tick) {
			return false
		}
		r.mu.Lock()
		decided := r.answered || r.correctGiven
		busy := r.inputBusy
		hintDue := !busy && !r.hintSent && elapsed+e.timing.Tick >= hintAt
		if hintDue {
			r.hintSent = true
		}
		r.mu.Unlock()

		if decided {
			return false
		}
		if busy {
			// An answer is in flight; this tick does not count.
			continue
		}
		elapsed += e.timing.Tick

		if hintDue && mt.ShowHint && e.timing.Hints {
			e.send(ctx, r.ChatID, "💡 Подсказка: "+FormatHint(r.Question.Answer))
		}
	}
	return true
}

// graceWait absorbs message-delivery latency before a timeout is declared: a
// short wait, a full extra window when an answer is being processed, then one
// final short wait. Reports false when the round got decided meanwhile.
func (e *Engine) graceWait(ctx context.Context, r *Round) bool {
	short := e.timing.Grace / 4
	if !sleepCtx(ctx, short) {
		return false
	}
	r.mu.Lock()
	decided := r.answered || r.correctGiven
	busy := r.inputBusy
	r.mu.Unlock()
	if decided {
		return false
	}
	if busy {
		if !sleepCtx(ctx, e.timing.Grace) {
			return false
		}
		r.mu.Lock()
		decided = r.answered || r.correctGiven
		r.mu.Unlock()
		if decided {
			return false
		}
	}
	if !sleepCtx(ctx, short) {
		return false
	}
	return true
}

func (e *Engine) readingTime(q domain.Question) time.Duration {
	if e.timing.Reading != nil {
		return e.timing.Reading(q)
	}
	return ReadingTime(q)
}

// sleepCtx sleeps d and reports false when the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
