package memory

import (
	"context"
	"errors"
	"testing"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

func TestMatchStore_InsertAndGet(t *testing.T) {
	store := NewMatchStore()
	ctx := context.Background()

	m := &domain.Match{
		ID:         1,
		Sequence:   0,
		Picks:      []string{"Rumble", "Sejuani"},
		Strategies: []string{"FRONTLINE_TEAMFIGHT", "OBJECTIVE_CONTROL"},
		Won:        true,
	}

	if err := store.Insert(ctx, m); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Strategies) != 2 || got.Strategies[0] != "FRONTLINE_TEAMFIGHT" {
		t.Errorf("Strategies mismatch: got %v", got.Strategies)
	}

	// Mutating the returned copy must not affect the store.
	got.Strategies[0] = "POKE_SIEGE"
	again, _ := store.GetByID(ctx, 1)
	if again.Strategies[0] != "FRONTLINE_TEAMFIGHT" {
		t.Errorf("store returned shared slice")
	}
}

func TestMatchStore_DuplicateKey(t *testing.T) {
	store := NewMatchStore()
	ctx := context.Background()

	m := &domain.Match{ID: 1}
	if err := store.Insert(ctx, m); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := store.Insert(ctx, m); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestMatchStore_InvalidInput(t *testing.T) {
	store := NewMatchStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Match{ID: 0}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for id 0, got %v", err)
	}
}

func TestMatchStore_InsertBulkAtomic(t *testing.T) {
	store := NewMatchStore()
	ctx := context.Background()

	batch := []*domain.Match{{ID: 1}, {ID: 2}, {ID: 1}}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 0 {
		t.Errorf("expected no partial insert, got %d matches", len(all))
	}
}

func TestMatchStore_GetAllOrdering(t *testing.T) {
	store := NewMatchStore()
	ctx := context.Background()

	batch := []*domain.Match{
		{ID: 5, Sequence: 2},
		{ID: 3, Sequence: 0},
		{ID: 9, Sequence: 1},
		{ID: 4, Sequence: 1},
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	want := []int{3, 4, 9, 5}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("position %d: expected id %d, got %d", i, id, all[i].ID)
		}
	}
}

func TestMatchStore_NotFound(t *testing.T) {
	store := NewMatchStore()
	if _, err := store.GetByID(context.Background(), 42); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
