package memory

import (
	"context"
	"sync"

	"career-assessment-service/internal/domain"
)

// SnapshotStore keeps score snapshots in a map. Useful for tests and
// single-process deployments without Redis or Postgres.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.CategoryScores
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]domain.CategoryScores)}
}

func (s *SnapshotStore) SaveSnapshot(_ context.Context, userID, assessmentID string, scores domain.CategoryScores) error {
	cp := make(domain.CategoryScores, len(scores))
	copy(cp, scores)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID+"/"+assessmentID] = cp
	return nil
}

func (s *SnapshotStore) LoadSnapshot(_ context.Context, userID, assessmentID string) (domain.CategoryScores, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores, ok := s.snapshots[userID+"/"+assessmentID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	cp := make(domain.CategoryScores, len(scores))
	copy(cp, scores)
	return cp, nil
}
