package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestScoreLedgerIncrementAndTop(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	ledger := NewScoreLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	for i := 0; i < 2; i++ {
		if err := ledger.Increment(ctx, 100, "Alice"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := ledger.Increment(ctx, 200, "Bob"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	top, err := ledger.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].DisplayName != "Alice" || top[0].Score != 2 {
		t.Fatalf("expected Alice leading with 2, got %+v", top[0])
	}
	if top[1].DisplayName != "Bob" || top[1].Score != 1 {
		t.Fatalf("expected Bob second with 1, got %+v", top[1])
	}
}

func TestScoreLedgerEmptyBoard(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ledger := NewScoreLedger(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	top, err := ledger.TopN(context.Background(), 5)
	if err != nil {
		t.Fatalf("topN: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("expected empty rating, got %+v", top)
	}
}
