package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

// ScoreLedger persists correct-answer counts in Postgres. The increment is a
// single upsert, so concurrent submissions never lose a point.
type ScoreLedger struct {
	pool *pgxpool.Pool
}

func NewScoreLedger(pool *pgxpool.Pool) *ScoreLedger {
	return &ScoreLedger{pool: pool}
}

func (l *ScoreLedger) Increment(ctx context.Context, userID int64, displayName string) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO scores (user_id, user_name, score) VALUES ($1, $2, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET score = scores.score + 1, user_name = EXCLUDED.user_name`,
		userID, displayName)
	if err != nil {
		return fmt.Errorf("increment score: %w", err)
	}
	return nil
}

func (l *ScoreLedger) TopN(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := l.pool.Query(ctx,
		`SELECT user_name, score FROM scores ORDER BY score DESC, user_name ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var e domain.ScoreEntry
		if err := rows.Scan(&e.DisplayName, &e.Score); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read score rows: %w", err)
	}
	return entries, nil
}
