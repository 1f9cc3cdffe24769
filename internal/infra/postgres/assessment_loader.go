package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"career-assessment-service/internal/catalog"
	"career-assessment-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AssessmentLoader loads assessment JSONB documents from Postgres.
type AssessmentLoader struct {
	pool *pgxpool.Pool
}

func NewAssessmentLoader(pool *pgxpool.Pool) *AssessmentLoader {
	return &AssessmentLoader{pool: pool}
}

func (l *AssessmentLoader) LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM assessments WHERE id=$1`, assessmentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	return catalog.DecodeAssessment(raw)
}

// ListAssessments returns every stored assessment ordered by position.
func (l *AssessmentLoader) ListAssessments(ctx context.Context) ([]domain.Assessment, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM assessments ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assessment
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a, err := catalog.DecodeAssessment(raw)
		if err != nil {
			return nil, fmt.Errorf("assessment %s: %w", id, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Seed upserts assessments in the given order, e.g. the embedded catalog.
func (l *AssessmentLoader) Seed(ctx context.Context, assessments []domain.Assessment) error {
	batch := &pgx.Batch{}
	for i, a := range assessments {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal assessment %s: %w", a.ID, err)
		}
		batch.Queue(`INSERT INTO assessments (id, position, data) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position, data=EXCLUDED.data, updated_at=now()`,
			a.ID, i, string(data))
	}
	br := l.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range assessments {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("seed assessments: %w", err)
		}
	}
	return nil
}
