package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"career-assessment-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps score snapshots as JSON strings under scores:{user}:{type}.
// A ttl of zero keeps snapshots forever.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, userID, assessmentID string, scores domain.CategoryScores) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(userID, assessmentID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, userID, assessmentID string) (domain.CategoryScores, error) {
	raw, err := s.client.Get(ctx, snapshotKey(userID, assessmentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var scores domain.CategoryScores
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, err)
	}
	return scores, nil
}

func snapshotKey(userID, assessmentID string) string {
	return "scores:" + userID + ":" + assessmentID
}
