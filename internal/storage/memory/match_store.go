package memory

import (
	"context"
	"sort"
	"sync"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// MatchStore is an in-memory implementation of storage.MatchStore.
type MatchStore struct {
	mu   sync.RWMutex
	data map[int]*domain.Match // keyed by match id
}

// NewMatchStore creates a new in-memory match store.
func NewMatchStore() *MatchStore {
	return &MatchStore{
		data: make(map[int]*domain.Match),
	}
}

// Insert adds a new match. Returns ErrDuplicateKey if the id exists.
func (s *MatchStore) Insert(_ context.Context, m *domain.Match) error {
	if err := m.Validate(); err != nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[m.ID] = m.Clone()
	return nil
}

// InsertBulk adds multiple matches atomically. Fails entire batch on any duplicate.
func (s *MatchStore) InsertBulk(_ context.Context, matches []*domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[m.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[m.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[m.ID] = struct{}{}
	}

	for _, m := range matches {
		s.data[m.ID] = m.Clone()
	}
	return nil
}

// GetByID retrieves a match by its ID. Returns ErrNotFound if not exists.
func (s *MatchStore) GetByID(_ context.Context, id int) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return m.Clone(), nil
}

// GetAll retrieves every match ordered by (sequence ASC, id ASC).
func (s *MatchStore) GetAll(_ context.Context) ([]*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Match, 0, len(s.data))
	for _, m := range s.data {
		result = append(result, m.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Sequence != result[j].Sequence {
			return result[i].Sequence < result[j].Sequence
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.MatchStore = (*MatchStore)(nil)
