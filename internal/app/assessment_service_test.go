package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"career-assessment-service/internal/app"
	"career-assessment-service/internal/catalog"
	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/infra/memory"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestFinishAttemptRecordsResultAndSnapshot(t *testing.T) {
	ctx := context.Background()
	service, snapshots := newTestService(t)

	if _, err := service.StartAttempt(ctx, "u1", "interest"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	answers := map[string]int{"i1": 3, "i2": 1, "i3": 2}
	for qid, idx := range answers {
		if _, err := service.RecordAnswer(ctx, "u1", "interest", qid, idx, ""); err != nil {
			t.Fatalf("answer %s failed: %v", qid, err)
		}
	}

	result, summary, err := service.FinishAttempt(ctx, "u1", "interest")
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if result.ID != "result-1" || result.UserID != "u1" || !result.CompletedAt.Equal(fixedNow) {
		t.Fatalf("unexpected result metadata %+v", result)
	}
	if got, _ := result.Scores.Get("Artistic"); got != 8 {
		t.Fatalf("expected Artistic 8, got %v", got)
	}
	if got, _ := result.Scores.Get("Social"); got != 2 {
		t.Fatalf("expected Social 2, got %v", got)
	}
	if result.Total != 10 {
		t.Fatalf("expected total 10, got %v", result.Total)
	}
	if summary.Completed != 1 {
		t.Fatalf("expected one completed result, got %d", summary.Completed)
	}

	stored, err := snapshots.LoadSnapshot(ctx, "u1", "interest")
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if total, ok := stored.Get(domain.TotalScoreKey); !ok || total != 10 {
		t.Fatalf("expected additive snapshot with total, got %+v", stored)
	}

	if _, err := service.Navigate(ctx, "u1", "interest", app.DirectionNext); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt dropped after finish, got %v", err)
	}
}

func TestFinishNormalizedSnapshotHasNoTotal(t *testing.T) {
	ctx := context.Background()
	service, snapshots := newTestService(t)

	_, _ = service.StartAttempt(ctx, "u1", "offbeat")
	_, _ = service.RecordAnswer(ctx, "u1", "offbeat", "n1", 0, "")
	_, _ = service.RecordAnswer(ctx, "u1", "offbeat", "n2", 0, "Yes")

	result, _, err := service.FinishAttempt(ctx, "u1", "offbeat")
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if got, _ := result.Scores.Get("Craft"); got != 50 {
		t.Fatalf("expected Craft 50, got %v", got)
	}

	stored, _ := snapshots.LoadSnapshot(ctx, "u1", "offbeat")
	if _, ok := stored.Get(domain.TotalScoreKey); ok {
		t.Fatalf("normalized snapshot must not carry a total: %+v", stored)
	}
}

func TestFinishWithoutAnswers(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, _, err := service.FinishAttempt(ctx, "u1", "interest"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected attempt error, got %v", err)
	}
	_, _ = service.StartAttempt(ctx, "u1", "interest")
	if _, _, err := service.FinishAttempt(ctx, "u1", "interest"); !errors.Is(err, domain.ErrNoAnswers) {
		t.Fatalf("expected no answers error, got %v", err)
	}
}

func TestConcurrentFinishRecordsOnce(t *testing.T) {
	ctx := context.Background()
	results := memory.NewResultRepository(3)
	service := app.NewAssessmentService(
		memory.NewCatalogRepository(testCatalog(t), time.Minute),
		results,
		memory.NewAttemptStore(),
		slowSnapshots{SnapshotStore: memory.NewSnapshotStore(), delay: 2 * time.Millisecond},
		app.WithLogger(zaptest.NewLogger(t)),
	)

	for trial := 0; trial < 20; trial++ {
		results.Reset(ctx, "u1")
		_, _ = service.StartAttempt(ctx, "u1", "interest")
		_, _ = service.RecordAnswer(ctx, "u1", "interest", "i1", 1, "")

		var (
			wg        sync.WaitGroup
			successes atomic.Int32
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := service.FinishAttempt(ctx, "u1", "interest")
				switch {
				case err == nil:
					successes.Add(1)
				case !errors.Is(err, domain.ErrAttemptNotFound):
					t.Errorf("unexpected finish error: %v", err)
				}
			}()
		}
		wg.Wait()

		if successes.Load() != 1 {
			t.Fatalf("trial %d: expected one successful finish, got %d", trial, successes.Load())
		}
		if got := service.Summary(ctx, "u1").Completed; got != 1 {
			t.Fatalf("trial %d: expected one recorded result, got %d", trial, got)
		}
	}
}

func TestFinishWithoutAnswersKeepsAttempt(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, _ = service.StartAttempt(ctx, "u1", "interest")
	if _, _, err := service.FinishAttempt(ctx, "u1", "interest"); !errors.Is(err, domain.ErrNoAnswers) {
		t.Fatalf("expected no answers error, got %v", err)
	}
	if _, err := service.RecordAnswer(ctx, "u1", "interest", "i1", 0, ""); err != nil {
		t.Fatalf("attempt should survive an empty finish: %v", err)
	}
	if _, _, err := service.FinishAttempt(ctx, "u1", "interest"); err != nil {
		t.Fatalf("finish after answering failed: %v", err)
	}
}

func TestStartUnknownAssessment(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.StartAttempt(context.Background(), "u1", "astrology"); !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNavigateRequiresAnswer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	_, _ = service.StartAttempt(ctx, "u1", "interest")

	if _, err := service.Navigate(ctx, "u1", "interest", app.DirectionNext); !errors.Is(err, domain.ErrAnswerRequired) {
		t.Fatalf("expected answer required, got %v", err)
	}
	_, _ = service.RecordAnswer(ctx, "u1", "interest", "", 1, "")
	p, err := service.Navigate(ctx, "u1", "interest", app.DirectionNext)
	if err != nil || p.Current != 1 {
		t.Fatalf("expected to advance, got %+v %v", p, err)
	}
	p, _ = service.RestartAttempt(ctx, "u1", "interest")
	if p.Current != 0 || p.Answered != 0 {
		t.Fatalf("expected restart, got %+v", p)
	}

	service.AbandonAttempt(ctx, "u1", "interest")
	if _, err := service.RestartAttempt(ctx, "u1", "interest"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected abandoned attempt gone, got %v", err)
	}
}

func TestScoreIsStateless(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	report, err := service.Score(ctx, "interest", domain.AnswerRecord{"i1": 3, "i2": 1, "i3": 2, "bogus": 1})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if report.Total != 10 || len(report.TopCategories) != 2 || report.TopCategories[0].Category != "Artistic" {
		t.Fatalf("unexpected report %+v", report)
	}
	if service.Summary(ctx, "u1").Completed != 0 {
		t.Fatalf("score must not record results")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	ch, cancel := service.Subscribe(ctx, "u1")
	defer cancel()
	<-ch // initial summary

	_, _ = service.StartAttempt(ctx, "u1", "interest")
	_, _ = service.RecordAnswer(ctx, "u1", "interest", "i1", 0, "")
	if _, _, err := service.FinishAttempt(ctx, "u1", "interest"); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	update := <-ch
	if update.Completed != 1 {
		t.Fatalf("expected completed 1, got %+v", update)
	}

	service.ResetResults(ctx, "u1")
	if update := <-ch; update.Completed != 0 {
		t.Fatalf("expected reset summary, got %+v", update)
	}
}

func TestSnapshotsTreatCorruptAsAbsent(t *testing.T) {
	ctx := context.Background()
	cat := testCatalog(t)
	snapshots := &flakySnapshots{SnapshotStore: memory.NewSnapshotStore()}
	service := app.NewAssessmentService(
		memory.NewCatalogRepository(cat, time.Minute),
		memory.NewResultRepository(3),
		memory.NewAttemptStore(),
		snapshots,
		app.WithLogger(zaptest.NewLogger(t)),
	)
	_ = snapshots.SaveSnapshot(ctx, "u1", "interest", domain.CategoryScores{{Category: "Artistic", Score: 8}})

	all, err := service.Snapshots(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshots failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected one entry per assessment, got %d", len(all))
	}
	if all[0].AssessmentID != "interest" || !all[0].Completed() {
		t.Fatalf("expected interest snapshot, got %+v", all[0])
	}
	if all[1].AssessmentID != "offbeat" || all[1].Completed() {
		t.Fatalf("expected corrupt offbeat snapshot to read as absent, got %+v", all[1])
	}

	one, err := service.Snapshot(ctx, "u1", "offbeat")
	if err != nil || one.Completed() {
		t.Fatalf("expected absent snapshot, got %+v %v", one, err)
	}
}

type flakySnapshots struct {
	*memory.SnapshotStore
}

func (f *flakySnapshots) LoadSnapshot(ctx context.Context, userID, assessmentID string) (domain.CategoryScores, error) {
	if assessmentID == "offbeat" {
		return nil, domain.ErrSnapshotCorrupt
	}
	return f.SnapshotStore.LoadSnapshot(ctx, userID, assessmentID)
}

func newTestService(t *testing.T) (*app.AssessmentService, *memory.SnapshotStore) {
	t.Helper()
	snapshots := memory.NewSnapshotStore()
	ids := 0
	service := app.NewAssessmentService(
		memory.NewCatalogRepository(testCatalog(t), time.Minute),
		memory.NewResultRepository(3),
		memory.NewAttemptStore(),
		snapshots,
		app.WithLogger(zaptest.NewLogger(t)),
		app.WithClock(func() time.Time { return fixedNow }),
		app.WithIDGenerator(func() string {
			ids++
			return "result-" + string(rune('0'+ids))
		}),
	)
	return service, snapshots
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	likert := []domain.Option{{Text: "0", Score: 0}, {Text: "2", Score: 2}, {Text: "3", Score: 3}, {Text: "5", Score: 5}}
	yesNo := []domain.Option{{Text: "No", Score: 0}, {Text: "Yes", Score: 1}}
	c, err := catalog.New(
		domain.Assessment{
			ID:    "interest",
			Title: "Interest",
			Mode:  domain.ModeAdditive,
			Questions: []domain.Question{
				{ID: "i1", Category: "Artistic", Options: likert},
				{ID: "i2", Category: "Social", Options: likert},
				{ID: "i3", Category: "Artistic", Options: likert},
			},
		},
		domain.Assessment{
			ID:    "offbeat",
			Title: "Offbeat careers",
			Mode:  domain.ModeNormalized,
			Questions: []domain.Question{
				{ID: "n1", Category: "Craft", Options: yesNo},
				{ID: "n2", Category: "Craft", Options: yesNo},
			},
		},
	)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

type slowSnapshots struct {
	app.SnapshotStore
	delay time.Duration
}

func (s slowSnapshots) SaveSnapshot(ctx context.Context, userID, assessmentID string, scores domain.CategoryScores) error {
	time.Sleep(s.delay)
	return s.SnapshotStore.SaveSnapshot(ctx, userID, assessmentID, scores)
}
