package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

func testSnapshot(id string, step int) *domain.GraphSnapshot {
	return &domain.GraphSnapshot{
		SnapshotID: id,
		SessionID:  "session-1",
		Mode:       domain.ModePicks,
		Step:       step,
		MatchID:    step,
		Wins:       step / 2,
		Nodes: []domain.NodeState{
			{ID: domain.NodeMidTempo, Strength: 0.22, WinStrength: 0.15, LossStrength: 0.07, WinCount: 1, LossCount: 1, Confidence: 0.15},
		},
		Edges: []domain.EdgeState{
			{From: domain.NodeMidTempo, To: domain.NodeObjectiveControl, Type: domain.EdgeEnables, Pheromone: 0.225, WinPheromone: 0.225, Confidence: 0.1},
		},
		CreatedAt: 1704067200000,
	}
}

func TestSnapshotStore_InsertAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)
	ctx := context.Background()

	for _, step := range []int{2, 1, 3} {
		require.NoError(t, store.Insert(ctx, testSnapshot(string(rune('a'+step)), step)))
	}

	snaps, err := store.GetBySession(ctx, "session-1", domain.ModePicks)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, 1, snaps[0].Step)
	assert.Equal(t, testSnapshot("b", 1), snaps[0])

	latest, err := store.GetLatest(ctx, "session-1", domain.ModePicks)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Step)

	_, err = store.GetLatest(ctx, "session-1", domain.ModeBans)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Insert(ctx, testSnapshot("a", 9)), storage.ErrDuplicateKey)
}
