package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"career-assessment-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SnapshotStore keeps one score snapshot per user and assessment type in
// the score_snapshots table. Saving overwrites the previous row.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, userID, assessmentID string, scores domain.CategoryScores) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO score_snapshots (user_id, assessment_id, scores) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, assessment_id) DO UPDATE SET scores=EXCLUDED.scores, updated_at=now()`,
		userID, assessmentID, string(data))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, userID, assessmentID string) (domain.CategoryScores, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT scores::text FROM score_snapshots WHERE user_id=$1 AND assessment_id=$2`,
		userID, assessmentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var scores domain.CategoryScores
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotCorrupt, err)
	}
	return scores, nil
}
