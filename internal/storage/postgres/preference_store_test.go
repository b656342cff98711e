package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

func TestPreferenceStore_UpsertAndTeamNames(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPreferenceStore(pool)
	ctx := context.Background()

	_, err := store.GetValue(ctx, domain.KeyHomeTeam)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	names, err := storage.LoadTeamNames(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTeamNames(), names)

	require.NoError(t, storage.SaveTeamNames(ctx, store, domain.TeamNames{Home: "Fnatic", Opponent: "MAD Lions"}))
	require.NoError(t, store.SetValue(ctx, domain.KeyOpponentTeam, "Team Heretics"))

	names, err = storage.LoadTeamNames(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamNames{Home: "Fnatic", Opponent: "Team Heretics"}, names)
}
