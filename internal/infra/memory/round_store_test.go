package memory

import (
	"testing"

	"github.com/jee-key/brain-blast-bot/internal/game"
)

func TestRoundStoreLifecycle(t *testing.T) {
	store := NewRoundStore()

	if _, ok := store.Get(1); ok {
		t.Fatalf("expected empty store")
	}

	store.Put(1, &game.Round{ID: "r1", UserID: 1})
	r, ok := store.Get(1)
	if !ok || r.ID != "r1" {
		t.Fatalf("expected stored round, got %+v ok=%v", r, ok)
	}

	// Wholesale replacement for the same user.
	store.Put(1, &game.Round{ID: "r2", UserID: 1})
	if r, _ := store.Get(1); r.ID != "r2" {
		t.Fatalf("expected replacement, got %s", r.ID)
	}

	store.Delete(1)
	if _, ok := store.Get(1); ok {
		t.Fatalf("expected round removed")
	}
}
