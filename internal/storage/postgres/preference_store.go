package postgres

import (
	"context"
	"fmt"
	"time"

	"draft-strategy-lab/internal/storage"
)

// PreferenceStore implements storage.PreferenceStore using PostgreSQL.
type PreferenceStore struct {
	pool *Pool
	now  func() time.Time
}

// NewPreferenceStore creates a new PreferenceStore.
func NewPreferenceStore(pool *Pool) *PreferenceStore {
	return &PreferenceStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.PreferenceStore = (*PreferenceStore)(nil)

// GetValue returns the value for a key. Returns ErrNotFound if unset.
func (s *PreferenceStore) GetValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&v)
	if err != nil {
		return "", translate("get preference "+key, err)
	}
	return v, nil
}

// SetValue creates or replaces the value for a key.
func (s *PreferenceStore) SetValue(ctx context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}
	query := `
		INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, query, key, value, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}
