package stores

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/config"
)

func TestOpen_MemoryDefaults(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{}, true)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "memory", s.Relational)
	assert.Equal(t, "memory", s.Analytics)
	assert.NotNil(t, s.Matches)
	assert.NotNil(t, s.Snapshots)
	assert.NotNil(t, s.Runs)
	assert.NotNil(t, s.Preferences)
}

func TestSeedMatches_Fixtures(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{}, false)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.SeedMatches(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	// A populated store is left alone.
	n, err = s.SeedMatches(ctx, "does-not-exist.json", nil)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestSeedMatches_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "matches.json")
	feed := `[
		{"id": 1, "strategies": ["MID_TEMPO", "OBJECTIVE_CONTROL"], "deniedStrategies": ["DIVE_COMP"], "won": true},
		{"id": 2, "strategies": ["BOT_PRESSURE"], "won": false},
		{"strategies": ["PICK_OFF"], "won": true}
	]`
	require.NoError(t, os.WriteFile(path, []byte(feed), 0o644))

	s, err := Open(ctx, config.StorageConfig{}, false)
	require.NoError(t, err)
	defer s.Close()

	var buf bytes.Buffer
	n, err := s.SeedMatches(ctx, path, log.New(&buf, "", 0))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, buf.String(), "missing_field")

	all, err := s.Matches.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Won)
}

func TestSeedMatches_MissingFile(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{}, false)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.SeedMatches(ctx, filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Error(t, err)
}
