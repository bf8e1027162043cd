package memory

import (
	"sync"

	"github.com/jee-key/brain-blast-bot/internal/game"
)

// RoundStore is an in-memory implementation of game.RoundStore: one active
// round per user, replaced wholesale when a new question starts.
type RoundStore struct {
	mu     sync.RWMutex
	rounds map[int64]*game.Round
}

func NewRoundStore() *RoundStore {
	return &RoundStore{rounds: make(map[int64]*game.Round)}
}

func (s *RoundStore) Get(userID int64) (*game.Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[userID]
	return r, ok
}

func (s *RoundStore) Put(userID int64, r *game.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[userID] = r
}

func (s *RoundStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, userID)
}
