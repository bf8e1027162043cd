package domain

import "errors"

var (
	// ErrNoActiveRound is returned when a user acts without an active round.
	ErrNoActiveRound = errors.New("no active round for user")
	// ErrRoundActive is returned when the answer is requested before the round is decided.
	ErrRoundActive = errors.New("round is still in progress")
	// ErrNoQuestion indicates the provider could not produce a playable question.
	ErrNoQuestion = errors.New("no question available")
)
