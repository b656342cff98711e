package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

func TestSnapshotStore_SessionOrdering(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	for _, step := range []int{3, 1, 2} {
		require.NoError(t, store.Insert(ctx, &domain.GraphSnapshot{
			SnapshotID: "snap-" + string(rune('a'+step)),
			SessionID:  "s1",
			Mode:       domain.ModePicks,
			Step:       step,
		}))
	}
	require.NoError(t, store.Insert(ctx, &domain.GraphSnapshot{
		SnapshotID: "other",
		SessionID:  "s1",
		Mode:       domain.ModeBans,
		Step:       9,
	}))

	snaps, err := store.GetBySession(ctx, "s1", domain.ModePicks)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, 1, snaps[0].Step)
	assert.Equal(t, 3, snaps[2].Step)

	latest, err := store.GetLatest(ctx, "s1", domain.ModePicks)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Step)
}

func TestSnapshotStore_Errors(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, &domain.GraphSnapshot{SnapshotID: "x"}), storage.ErrInvalidInput)

	snap := &domain.GraphSnapshot{SnapshotID: "x", Mode: domain.ModeBans}
	require.NoError(t, store.Insert(ctx, snap))
	assert.ErrorIs(t, store.Insert(ctx, snap), storage.ErrDuplicateKey)

	_, err := store.GetLatest(ctx, "missing", domain.ModePicks)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
