package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

const (
	scoresKey = "quiz:scores"
	namesKey  = "quiz:names"
)

// ScoreLedger keeps correct-answer counts in a Redis sorted set, with a hash
// mapping user ids to display names:
//
//	ZINCRBY quiz:scores 1 {userID}
//	HSET    quiz:names  {userID} {displayName}
type ScoreLedger struct {
	client *redis.Client
}

func NewScoreLedger(client *redis.Client) *ScoreLedger {
	return &ScoreLedger{client: client}
}

func (l *ScoreLedger) Increment(ctx context.Context, userID int64, displayName string) error {
	member := strconv.FormatInt(userID, 10)
	pipe := l.client.TxPipeline()
	pipe.ZIncrBy(ctx, scoresKey, 1, member)
	pipe.HSet(ctx, namesKey, member, displayName)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment score: %w", err)
	}
	return nil
}

func (l *ScoreLedger) TopN(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	members, err := l.client.ZRevRangeWithScores(ctx, scoresKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Member.(string)
	}
	names, err := l.client.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("score names: %w", err)
	}

	entries := make([]domain.ScoreEntry, 0, len(members))
	for i, m := range members {
		name := ids[i]
		if i < len(names) {
			if s, ok := names[i].(string); ok && s != "" {
				name = s
			}
		}
		entries = append(entries, domain.ScoreEntry{DisplayName: name, Score: int(m.Score)})
	}
	return entries, nil
}
