package memory

import (
	"context"
	"sort"
	"sync"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GraphSnapshot // keyed by snapshot_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.GraphSnapshot),
	}
}

func cloneSnapshot(s *domain.GraphSnapshot) *domain.GraphSnapshot {
	c := *s
	c.Nodes = append([]domain.NodeState(nil), s.Nodes...)
	c.Edges = append([]domain.EdgeState(nil), s.Edges...)
	return &c
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.GraphSnapshot) error {
	if snap == nil || snap.SnapshotID == "" || !snap.Mode.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[snap.SnapshotID] = cloneSnapshot(snap)
	return nil
}

// GetBySession retrieves snapshots of one session and mode, ordered by step ASC.
func (s *SnapshotStore) GetBySession(_ context.Context, sessionID string, mode domain.GraphMode) ([]*domain.GraphSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GraphSnapshot
	for _, snap := range s.data {
		if snap.SessionID == sessionID && snap.Mode == mode {
			result = append(result, cloneSnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Step != result[j].Step {
			return result[i].Step < result[j].Step
		}
		return result[i].SnapshotID < result[j].SnapshotID
	})
	return result, nil
}

// GetLatest retrieves the highest-step snapshot. Returns ErrNotFound if none exist.
func (s *SnapshotStore) GetLatest(ctx context.Context, sessionID string, mode domain.GraphMode) (*domain.GraphSnapshot, error) {
	all, err := s.GetBySession(ctx, sessionID, mode)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[len(all)-1], nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
