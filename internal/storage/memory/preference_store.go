package memory

import (
	"context"
	"sync"

	"draft-strategy-lab/internal/storage"
)

// PreferenceStore is an in-memory implementation of storage.PreferenceStore.
type PreferenceStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewPreferenceStore creates a new in-memory preference store.
func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{
		data: make(map[string]string),
	}
}

// GetValue returns the value for a key. Returns ErrNotFound if unset.
func (s *PreferenceStore) GetValue(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// SetValue creates or replaces the value for a key.
func (s *PreferenceStore) SetValue(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

var _ storage.PreferenceStore = (*PreferenceStore)(nil)
