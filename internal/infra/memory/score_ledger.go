package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

// ScoreLedger keeps correct-answer counts in process memory. Used in tests and
// as the fallback when neither redis nor postgres is configured.
type ScoreLedger struct {
	mu     sync.RWMutex
	scores map[int64]int
	names  map[int64]string
}

func NewScoreLedger() *ScoreLedger {
	return &ScoreLedger{
		scores: make(map[int64]int),
		names:  make(map[int64]string),
	}
}

func (l *ScoreLedger) Increment(_ context.Context, userID int64, displayName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[userID]++
	l.names[userID] = displayName
	return nil
}

func (l *ScoreLedger) TopN(_ context.Context, limit int) ([]domain.ScoreEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]domain.ScoreEntry, 0, len(l.scores))
	for id, score := range l.scores {
		entries = append(entries, domain.ScoreEntry{DisplayName: l.names[id], Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
