package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/scoring"
)

// ResultRepository owns the per-user result stores (in-memory, Redis-backed, etc).
type ResultRepository interface {
	GetOrCreate(ctx context.Context, userID string) *ResultStore
	Reset(ctx context.Context, userID string) domain.Summary
}

// AttemptRepository keeps in-flight attempts keyed by user and assessment type.
type AttemptRepository interface {
	Put(attempt *Attempt)
	Get(userID, assessmentID string) (*Attempt, bool)
	// Take removes and returns the attempt in one step, so only one caller
	// can finish it.
	Take(userID, assessmentID string) (*Attempt, bool)
	Delete(userID, assessmentID string)
}

// CatalogRepository loads assessment content (from cache/backing store).
type CatalogRepository interface {
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
	ListAssessments(ctx context.Context) ([]domain.AssessmentInfo, error)
}

// SnapshotStore persists the latest category scores per user and assessment type.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, userID, assessmentID string, scores domain.CategoryScores) error
	// LoadSnapshot returns domain.ErrSnapshotNotFound or domain.ErrSnapshotCorrupt
	// when nothing usable is stored.
	LoadSnapshot(ctx context.Context, userID, assessmentID string) (domain.CategoryScores, error)
}

// Direction selects where Navigate moves an attempt.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// AssessmentService contains the assessment use cases.
type AssessmentService struct {
	catalog   CatalogRepository
	results   ResultRepository
	attempts  AttemptRepository
	snapshots SnapshotStore

	topN   int
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures an AssessmentService.
type Option func(*AssessmentService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *AssessmentService) { s.logger = logger }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AssessmentService) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *AssessmentService) { s.newID = fn }
}

// WithTopN sets how many categories score reports highlight.
func WithTopN(n int) Option {
	return func(s *AssessmentService) { s.topN = n }
}

func NewAssessmentService(catalog CatalogRepository, results ResultRepository, attempts AttemptRepository, snapshots SnapshotStore, opts ...Option) *AssessmentService {
	s := &AssessmentService{
		catalog:   catalog,
		results:   results,
		attempts:  attempts,
		snapshots: snapshots,
		topN:      scoring.DefaultTopN,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AssessmentService) ListAssessments(ctx context.Context) ([]domain.AssessmentInfo, error) {
	return s.catalog.ListAssessments(ctx)
}

func (s *AssessmentService) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	return s.catalog.GetAssessment(ctx, assessmentID)
}

// StartAttempt begins a fresh attempt, replacing any unfinished one for the same type.
func (s *AssessmentService) StartAttempt(ctx context.Context, userID, assessmentID string) (domain.Progress, error) {
	assessment, err := s.catalog.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Progress{}, err
	}
	attempt := NewAttempt(userID, assessment, s.now())
	s.attempts.Put(attempt)
	return attempt.Progress(), nil
}

// RecordAnswer stores an answer by option index. A non-empty text takes
// precedence and is matched against option texts.
func (s *AssessmentService) RecordAnswer(_ context.Context, userID, assessmentID, questionID string, option int, text string) (domain.Progress, error) {
	attempt, ok := s.attempts.Get(userID, assessmentID)
	if !ok {
		return domain.Progress{}, domain.ErrAttemptNotFound
	}
	if text != "" {
		return attempt.AnswerText(questionID, text)
	}
	return attempt.Answer(questionID, option)
}

func (s *AssessmentService) Navigate(_ context.Context, userID, assessmentID string, dir Direction) (domain.Progress, error) {
	attempt, ok := s.attempts.Get(userID, assessmentID)
	if !ok {
		return domain.Progress{}, domain.ErrAttemptNotFound
	}
	switch dir {
	case DirectionNext:
		return attempt.Next()
	case DirectionPrevious:
		return attempt.Previous(), nil
	default:
		return domain.Progress{}, fmt.Errorf("unknown direction %q", dir)
	}
}

func (s *AssessmentService) RestartAttempt(_ context.Context, userID, assessmentID string) (domain.Progress, error) {
	attempt, ok := s.attempts.Get(userID, assessmentID)
	if !ok {
		return domain.Progress{}, domain.ErrAttemptNotFound
	}
	return attempt.Restart(), nil
}

// AbandonAttempt drops an unfinished attempt without recording anything.
func (s *AssessmentService) AbandonAttempt(_ context.Context, userID, assessmentID string) {
	s.attempts.Delete(userID, assessmentID)
}

// FinishAttempt scores the attempt, appends the result to the user's store and
// overwrites the stored snapshot. Snapshot failures are logged only.
// Concurrent finishes of one attempt record a single result; the losers get
// ErrAttemptNotFound.
func (s *AssessmentService) FinishAttempt(ctx context.Context, userID, assessmentID string) (domain.AssessmentResult, domain.Summary, error) {
	attempt, ok := s.attempts.Take(userID, assessmentID)
	if !ok {
		return domain.AssessmentResult{}, domain.Summary{}, domain.ErrAttemptNotFound
	}
	answers := attempt.Answers()
	if len(answers) == 0 {
		s.attempts.Put(attempt)
		return domain.AssessmentResult{}, domain.Summary{}, domain.ErrNoAnswers
	}

	assessment := attempt.Assessment()
	scores := scoring.Aggregate(assessment.Questions, answers, assessment.Mode)
	result := domain.AssessmentResult{
		ID:           s.newID(),
		UserID:       userID,
		AssessmentID: assessment.ID,
		Mode:         assessment.Mode,
		Answers:      answers,
		Scores:       scores,
		Total:        scoring.Total(scores),
		CompletedAt:  s.now(),
	}

	summary := s.results.GetOrCreate(ctx, userID).AddResult(result)

	if err := s.snapshots.SaveSnapshot(ctx, userID, assessment.ID, snapshotScores(assessment.Mode, scores)); err != nil {
		s.logger.Warn("save score snapshot failed",
			zap.String("user_id", userID),
			zap.String("assessment_id", assessment.ID),
			zap.Error(err))
	}

	s.logger.Info("assessment completed",
		zap.String("user_id", userID),
		zap.String("assessment_id", assessment.ID),
		zap.String("result_id", result.ID),
		zap.Int("answered", len(answers)))
	return result, summary, nil
}

// Score aggregates answers against an assessment without recording anything.
func (s *AssessmentService) Score(ctx context.Context, assessmentID string, answers domain.AnswerRecord) (domain.ScoreReport, error) {
	assessment, err := s.catalog.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.ScoreReport{}, err
	}
	scores := scoring.Aggregate(assessment.Questions, answers, assessment.Mode)
	return domain.ScoreReport{
		AssessmentID:  assessment.ID,
		Mode:          assessment.Mode,
		Scores:        scores,
		Total:         scoring.Total(scores),
		TopCategories: scoring.TopN(scores, s.topN),
	}, nil
}

func (s *AssessmentService) Summary(ctx context.Context, userID string) domain.Summary {
	return s.results.GetOrCreate(ctx, userID).Summary()
}

func (s *AssessmentService) Results(ctx context.Context, userID string) []domain.AssessmentResult {
	return s.results.GetOrCreate(ctx, userID).Results()
}

// ResetResults clears the user's session results. Snapshots are kept.
func (s *AssessmentService) ResetResults(ctx context.Context, userID string) domain.Summary {
	return s.results.Reset(ctx, userID)
}

// Subscribe returns a channel that receives summary updates for a user.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *AssessmentService) Subscribe(ctx context.Context, userID string) (<-chan domain.Summary, func()) {
	return s.results.GetOrCreate(ctx, userID).Subscribe()
}

// Snapshot reads the stored scores for one assessment type.
func (s *AssessmentService) Snapshot(ctx context.Context, userID, assessmentID string) (domain.Snapshot, error) {
	assessment, err := s.catalog.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap := domain.Snapshot{AssessmentID: assessment.ID, Title: assessment.Title}
	scores, err := s.snapshots.LoadSnapshot(ctx, userID, assessment.ID)
	switch {
	case err == nil:
		snap.Scores = scores
	case errors.Is(err, domain.ErrSnapshotNotFound):
	case errors.Is(err, domain.ErrSnapshotCorrupt):
		s.logger.Warn("ignoring corrupt score snapshot",
			zap.String("user_id", userID),
			zap.String("assessment_id", assessment.ID),
			zap.Error(err))
	default:
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// Snapshots loads every catalog assessment's snapshot concurrently, in
// catalog order. Storage failures are logged and treated as absent.
func (s *AssessmentService) Snapshots(ctx context.Context, userID string) ([]domain.Snapshot, error) {
	infos, err := s.catalog.ListAssessments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Snapshot, len(infos))
	g, gctx := errgroup.WithContext(ctx)
	for i, info := range infos {
		g.Go(func() error {
			out[i] = domain.Snapshot{AssessmentID: info.ID, Title: info.Title}
			scores, err := s.snapshots.LoadSnapshot(gctx, userID, info.ID)
			if err != nil {
				if !errors.Is(err, domain.ErrSnapshotNotFound) {
					s.logger.Warn("load score snapshot failed",
						zap.String("user_id", userID),
						zap.String("assessment_id", info.ID),
						zap.Error(err))
				}
				return nil
			}
			out[i].Scores = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// snapshotScores adds the combined total to additive scores before they are persisted.
func snapshotScores(mode domain.ScoringMode, scores domain.CategoryScores) domain.CategoryScores {
	if mode == domain.ModeAdditive {
		return scoring.WithTotal(scores)
	}
	return scores
}
